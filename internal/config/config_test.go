package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSymbols_MissingFile(t *testing.T) {
	syms, err := LoadSymbols("")
	require.NoError(t, err)
	assert.Empty(t, syms)

	syms, err = LoadSymbols(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestLoadSymbols_ParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board-a: DEBUG_DATA\nboard-b: DBG_TABLE\n"), 0o644))

	syms, err := LoadSymbols(path)
	require.NoError(t, err)
	assert.Equal(t, Symbols{"board-a": "DEBUG_DATA", "board-b": "DBG_TABLE"}, syms)
}

func TestLoadSymbols_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board-a: [this, is, a, list]\n"), 0o644))

	_, err := LoadSymbols(path)
	assert.Error(t, err)
}

func TestParseMagic(t *testing.T) {
	magic, err := parseMagic("4442475f44415441")
	require.NoError(t, err)
	assert.Equal(t, [8]byte{'D', 'B', 'G', '_', 'D', 'A', 'T', 'A'}, magic)
}

func TestParseMagic_RejectsWrongLength(t *testing.T) {
	_, err := parseMagic("4442")
	assert.Error(t, err)
}

func TestParseMagic_RejectsNonHex(t *testing.T) {
	_, err := parseMagic("not-hex-at-all!")
	assert.Error(t, err)
}
