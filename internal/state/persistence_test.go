package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TestWriteJSONAtomic tests atomic overwrite and read back
func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	require.NoError(t, WriteJSONAtomic(path, record{Name: "a", Value: 1}))
	require.NoError(t, WriteJSONAtomic(path, record{Name: "b", Value: 2}))

	var got record
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, record{Name: "b", Value: 2}, got)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file must not linger")
}

// TestReadJSON_Missing tests that a missing file surfaces os.ErrNotExist
func TestReadJSON_Missing(t *testing.T) {
	var got record
	err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &got)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestJournal_AppendAndReadAll tests JSONL ordering and corrupt-line skipping
func TestJournal_AppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	journal := NewJournal(path)

	require.NoError(t, journal.Append(record{Name: "first", Value: 1}))
	require.NoError(t, journal.Append(record{Name: "second", Value: 2}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, journal.Append(record{Name: "third", Value: 3}))

	var names []string
	skipped, err := journal.ReadAll(func(line []byte) error {
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		names = append(names, r.Name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

// TestJournal_ReadAllMissing tests that an absent journal is empty
func TestJournal_ReadAllMissing(t *testing.T) {
	skipped, err := NewJournal(filepath.Join(t.TempDir(), "none.jsonl")).ReadAll(func([]byte) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
}
