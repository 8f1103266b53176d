package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := Open(t.TempDir(), testLogger())
	require.False(t, dir.MemoryOnly())

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	saved := []record{{Name: "alpha", Count: 3}, {Name: "beta", Count: 0}}
	require.NoError(t, dir.Save("records.json", saved))

	var loaded []record
	found, err := dir.Load("records.json", &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved, loaded)
}

func TestSaveIsPrettyPrinted(t *testing.T) {
	tmp := t.TempDir()
	dir := Open(tmp, testLogger())
	require.NoError(t, dir.Save("cfg.json", map[string]int{"a": 1}))

	data, err := os.ReadFile(filepath.Join(tmp, "cfg.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  "), "expected indented JSON, got %q", data)
}

func TestLoadMissingFile(t *testing.T) {
	dir := Open(t.TempDir(), testLogger())

	var v map[string]string
	found, err := dir.Load("nope.json", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadCorruptedFileFallsBack(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "bad.json"), []byte("{not json"), 0o644))

	dir := Open(tmp, testLogger())
	var v map[string]string
	found, err := dir.Load("bad.json", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryOnlyMode(t *testing.T) {
	// A file in place of the directory makes MkdirAll fail.
	tmp := t.TempDir()
	blocked := filepath.Join(tmp, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	dir := Open(blocked, testLogger())
	assert.True(t, dir.MemoryOnly())

	// Saves succeed without touching disk; loads find nothing.
	require.NoError(t, dir.Save("t.json", map[string]int{"a": 1}))
	var v map[string]int
	found, err := dir.Load("t.json", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
