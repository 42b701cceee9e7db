// Package config centralizes the settings shared by the patch and
// connect subcommands: host/port, the debug-table symbol name, and the
// header magic, loaded from flags, environment variables (INSPECT_*)
// and an optional ".inspect.yaml" in the user's home directory.
//
// Grounded on the teacher's cmd.initConfig (_examples/.../cmd/root.go),
// renamed from ".cucaracha" to ".inspect" and with the INSPECT env
// prefix the teacher's config never set explicitly (cucaracha relied on
// viper.AutomaticEnv's bare variable names).
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dbgtable/inspect/pkg/codec"
	"github.com/dbgtable/inspect/pkg/walker"
)

// Config is the resolved set of settings for a run of patch or
// connect.
type Config struct {
	Host    string
	Port    int
	Symbol  string
	Magic   [8]byte
	Verbose bool
}

const (
	defaultHost = "localhost"
	defaultPort = 1234
)

// Load reads defaults, the ".inspect.yaml" config file (if present),
// and INSPECT_* environment variables into v, then resolves a Config.
// Flags already bound to v by the caller (via viper.BindPFlag) take
// precedence over both.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("symbol", walker.DefaultSymbol)

	v.SetEnvPrefix("INSPECT")
	v.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".inspect")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("config: read .inspect.yaml: %w", err)
		}
	}

	magic := codec.DefaultMagic
	if hexMagic := v.GetString("magic"); hexMagic != "" {
		m, err := parseMagic(hexMagic)
		if err != nil {
			return Config{}, err
		}
		magic = m
	}

	return Config{
		Host:    v.GetString("host"),
		Port:    v.GetInt("port"),
		Symbol:  v.GetString("symbol"),
		Magic:   magic,
		Verbose: v.GetBool("verbose"),
	}, nil
}

func parseMagic(s string) ([8]byte, error) {
	var magic [8]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return magic, fmt.Errorf("config: magic %q is not hex: %w", s, err)
	}
	if len(raw) != 8 {
		return magic, fmt.Errorf("config: magic must be 8 bytes (16 hex digits), got %d bytes", len(raw))
	}
	copy(magic[:], raw)
	return magic, nil
}

// Symbols is an optional per-target override file (symbols.yaml): a
// map from a logical target name to the DEBUG_DATA symbol used on that
// target, for firmware images that rename the reservation.
type Symbols map[string]string

// LoadSymbols reads a symbols.yaml file, returning an empty Symbols if
// path is empty or the file does not exist, since overrides are opt-in.
func LoadSymbols(path string) (Symbols, error) {
	if path == "" {
		return Symbols{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Symbols{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var syms Symbols
	if err := yaml.Unmarshal(data, &syms); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return syms, nil
}
