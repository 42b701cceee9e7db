// Package connect implements the "connect" subcommand: dial a running
// target's command socket, load its embedded debug table, and either
// print one path expression (--eval) or open the interactive tree
// browser.
//
// Grounded on the original tool's client.py main()/gui.py main() entry
// points, in the cobra flag-and-RunE shape the teacher uses throughout
// cmd/cpu.
package connect

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbgtable/inspect/internal/config"
	"github.com/dbgtable/inspect/pkg/transport"
	"github.com/dbgtable/inspect/pkg/walker"
)

var (
	host        string
	port        int
	symbol      string
	magicHex    string
	evalPath    string
	writeValue  string
	target      string
	symbolsFile string
	dialTimeout = 5 * time.Second
)

var colorError = color.New(color.FgRed, color.Bold)

// Cmd is the "connect" subcommand, wired into cmd.RootCmd.
var Cmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a running target and inspect its debug table",
	Long: `connect dials the target's command socket, reads the embedded debug
table, and resolves the load base against the running image.

Without --eval, it opens an interactive tree browser of every top-level
variable. With --eval PATH, it resolves and prints a single path
expression (e.g. "head.next[2].value") and exits, writing through it
first if --write is also given.`,
	RunE: runConnect,
}

func init() {
	Cmd.Flags().StringVarP(&host, "host", "c", "localhost", "target host")
	Cmd.Flags().IntVarP(&port, "port", "p", 1234, "target port")
	Cmd.Flags().StringVarP(&symbol, "symbol", "s", walker.DefaultSymbol, "debug table anchor symbol")
	Cmd.Flags().StringVar(&magicHex, "magic", "", "override the 16-hex-digit header magic (default built-in)")
	Cmd.Flags().StringVar(&evalPath, "eval", "", "resolve and print a single path expression, then exit")
	Cmd.Flags().StringVar(&writeValue, "write", "", "with --eval, write this literal through the resolved path before printing it")
	Cmd.Flags().StringVarP(&target, "target", "t", "", "target name to look up in --symbols-file, overriding --symbol")
	Cmd.Flags().StringVar(&symbolsFile, "symbols-file", "", "optional symbols.yaml mapping target names to anchor symbols")
}

// bindConfig binds this command's host/port/symbol/magic flags onto a
// fresh viper instance and resolves them through config.Load, so a
// value left at its flag default falls through to ".inspect.yaml" and
// INSPECT_* env vars instead of the flag silently winning regardless.
func bindConfig(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()
	for _, name := range []string{"host", "port", "symbol", "magic"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return config.Config{}, fmt.Errorf("connect: bind --%s: %w", name, err)
		}
	}
	return config.Load(v)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := bindConfig(cmd)
	if err != nil {
		return err
	}
	symbol := cfg.Symbol

	if target != "" {
		syms, err := config.LoadSymbols(symbolsFile)
		if err != nil {
			return err
		}
		if override, ok := syms[target]; ok {
			symbol = override
		} else {
			return fmt.Errorf("connect: target %q has no entry in %s", target, symbolsFile)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	slog.Debug("dialing target", "addr", addr, "symbol", symbol)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connect: dial %s: %w", addr, err)
	}
	defer conn.Close()

	client := transport.New(conn)
	table, err := walker.Load(client, symbol, cfg.Magic)
	if err != nil {
		slog.Error("load debug table failed", "addr", addr, "symbol", symbol, "error", err)
		colorError.Fprintln(os.Stderr, err)
		return err
	}
	slog.Info("loaded debug table", "addr", addr, "symbol", symbol, "base", table.Base)

	if evalPath != "" {
		return runEval(client, table)
	}
	return runTree(client, table)
}

func runEval(client *transport.Client, table *walker.Table) error {
	cur, err := table.Resolve(client, evalPath)
	if err != nil {
		return err
	}
	if writeValue != "" {
		if err := cur.Write(client, writeValue); err != nil {
			return err
		}
	}
	text, err := cur.Render(client)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", evalPath, text)
	return nil
}
