// Package patch implements the "patch" subcommand: ingest DWARF from a
// firmware ELF, deduplicate and encode the resulting graph, and
// overwrite the reserved embedded-table region in the binary with it.
//
// Grounded on the teacher's cmd/cpu/debug.go for the package-level
// fatih/color palette and cobra command shape, adapted from an
// interactive debugger's output to a one-shot pipeline's status lines.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbgtable/inspect/internal/config"
	"github.com/dbgtable/inspect/pkg/codec"
	"github.com/dbgtable/inspect/pkg/ingest"
	"github.com/dbgtable/inspect/pkg/patcher"
	"github.com/dbgtable/inspect/pkg/utils"
	"github.com/dbgtable/inspect/pkg/value"
)

var (
	colorStep    = color.New(color.FgCyan)
	colorSuccess = color.New(color.FgGreen, color.Bold)
	colorError   = color.New(color.FgRed, color.Bold)
	colorValue   = color.New(color.FgWhite, color.Bold)
)

var (
	pointerWidth uint64
	magicHex     string
	langFlag     string
	dumpTable    bool
)

// Cmd is the "patch" subcommand, wired into cmd.RootCmd.
var Cmd = &cobra.Command{
	Use:   "patch <binary>",
	Short: "Embed a DWARF-derived debug table into a firmware binary",
	Long: `patch reads the DWARF debug info out of <binary>, builds the compact
debug-table graph it describes, deduplicates repeated types and compile
units, deflate-compresses the encoded table, and overwrites the reserved
region the firmware declared for it.

If the binary has no reservation yet (or too small a one), patch prints a
ready-to-paste declaration sized for the table it just built.`,
	Args: cobra.ExactArgs(1),
	RunE: runPatch,
}

func init() {
	Cmd.Flags().Uint64Var(&pointerWidth, "pointer-width", 8, "byte width of pointer variables")
	Cmd.Flags().StringVar(&magicHex, "magic", "", "override the 16-hex-digit header magic (default built-in)")
	Cmd.Flags().StringVar(&langFlag, "lang", "c", "guidance snippet language when the reservation is missing or too small (c, rust)")
	Cmd.Flags().BoolVar(&dumpTable, "dump", false, "print the encoded table's contents to stdout before patching")
}

// bindConfig binds the --magic flag onto a fresh viper instance and
// resolves it through config.Load, so an unset --magic falls through
// to ".inspect.yaml"/INSPECT_* before the built-in default.
func bindConfig(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()
	if err := v.BindPFlag("magic", cmd.Flags().Lookup("magic")); err != nil {
		return config.Config{}, fmt.Errorf("patch: bind --magic: %w", err)
	}
	return config.Load(v)
}

func runPatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := bindConfig(cmd)
	if err != nil {
		return err
	}
	magic := cfg.Magic

	colorStep.Printf("Ingesting DWARF from %s...\n", path)
	slog.Debug("ingesting DWARF", "path", path, "pointer_width", pointerWidth)
	root, err := ingest.File(path, ingest.Config{PointerWidth: pointerWidth})
	if err != nil {
		colorError.Fprintln(os.Stderr, "ingest failed:", err)
		return err
	}

	before := value.CountNodes(root)
	root = value.Deduplicate(root)
	after := value.CountNodes(root)
	colorStep.Printf("Deduplicated graph: %s -> %s nodes\n", colorValue.Sprintf("%d", before), colorValue.Sprintf("%d", after))
	slog.Debug("deduplicated graph", "nodes_before", before, "nodes_after", after)

	if dumpTable {
		if err := codec.Dump(os.Stdout, root); err != nil {
			return err
		}
	}

	var encoded bytes.Buffer
	if err := codec.Encode(&encoded, root); err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	compressed, err := codec.Deflate(encoded.Bytes())
	if err != nil {
		return fmt.Errorf("compress table: %w", err)
	}
	colorStep.Printf("Encoded table: %s bytes raw, %s bytes compressed\n",
		colorValue.Sprintf("%d", encoded.Len()), colorValue.Sprintf("%d", len(compressed)))

	offset, maxSize, err := patcher.Patch(path, magic, compressed)
	if err != nil {
		lang := patcher.LangC
		if langFlag == "rust" {
			lang = patcher.LangRust
		}
		needed := len(compressed) + codec.HeaderSize
		if errors.Is(err, patcher.ErrMagicNotFound) || errors.Is(err, patcher.ErrReservationTooSmall) {
			slog.Error("patch failed", "path", path, "error", err)
			colorError.Fprintln(os.Stderr, err)
			patcher.WriteGuidance(os.Stderr, magic, needed, lang, "DEBUG_DATA")
			return err
		}
		return err
	}

	slog.Info("patched binary", "path", path, "offset", offset, "max_size", maxSize)
	colorSuccess.Printf("Patched %s at offset %s (reservation %s bytes)\n",
		path, colorValue.Sprintf("%s", utils.FormatUintHex(uint64(offset), 8)), colorValue.Sprintf("%d", maxSize))
	return nil
}
