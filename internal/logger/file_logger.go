package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFile is an io.Writer appending to logs/{prefix}_{date}.log and
// switching to a new file when the date changes
type DailyFile struct {
	mu     sync.Mutex
	dir    string
	prefix string
	date   string
	file   *os.File
	now    func() time.Time
}

// NewDailyFile creates the log directory and opens today's file
func NewDailyFile(dir, prefix string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	d := &DailyFile{dir: dir, prefix: prefix, now: time.Now}
	if err := d.rotate(d.now().Format("2006-01-02")); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the file currently written to
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path(d.date)
}

func (d *DailyFile) path(date string) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.log", d.prefix, date))
}

func (d *DailyFile) rotate(date string) error {
	file, err := os.OpenFile(d.path(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = file
	d.date = date
	return nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if date := d.now().Format("2006-01-02"); date != d.date {
		if err := d.rotate(date); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
