package state

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WriteJSONAtomic marshals v with indentation and replaces path via a
// temporary file and rename, so readers never observe a partial file.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to move state file: %w", err)
	}
	return nil
}

// ReadJSON loads path into v. A missing file is reported as os.ErrNotExist.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	return nil
}

// Journal is an append-only JSONL file. Each Append writes one line and
// syncs it to disk.
type Journal struct {
	mu   sync.Mutex
	path string
}

// NewJournal creates a journal at path. The file is created lazily.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Append writes record as a single JSON line
func (j *Journal) Append(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal %s: %w", j.path, err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append journal record: %w", err)
	}
	return file.Sync()
}

// ReadAll decodes every line with fn. Lines that fail to decode are
// skipped and counted in the returned number.
func (j *Journal) ReadAll(fn func(line []byte) error) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open journal %s: %w", j.path, err)
	}
	defer file.Close()

	skipped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			skipped++
		}
	}
	return skipped, scanner.Err()
}
