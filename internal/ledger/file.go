package ledger

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileLedger keeps committed ids in a plain text file, one id per line,
// matching the format earlier deployments of the collector used. The
// whole set is loaded at open; Add appends a line and syncs.
type FileLedger struct {
	mu   sync.Mutex
	file *os.File
	ids  map[string]struct{}
}

// OpenFile opens (creating if needed) the id file at path.
func OpenFile(path string) (*FileLedger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open ledger file %s: %w", path, err)
	}

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("read ledger file %s: %w", path, err)
	}

	return &FileLedger{file: file, ids: ids}, nil
}

// Contains reports whether id has been committed in any prior cycle.
func (l *FileLedger) Contains(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok, nil
}

// Add appends id to the file and syncs it so the entry survives a crash.
func (l *FileLedger) Add(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ids[id]; ok {
		return nil
	}
	if _, err := fmt.Fprintln(l.file, id); err != nil {
		return fmt.Errorf("append ledger id %s: %w", id, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger file: %w", err)
	}
	l.ids[id] = struct{}{}
	return nil
}

// Count returns how many ids the ledger holds.
func (l *FileLedger) Count(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids), nil
}

// Close closes the underlying file.
func (l *FileLedger) Close() error {
	return l.file.Close()
}
