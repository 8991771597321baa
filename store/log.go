package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// WrittenLog records the IDs of games already flushed to a batch file, one ID
// per line in an append-only file. A torn final line from a crash is read back
// as an unknown ID and the game is simply played again.
type WrittenLog struct {
	mu      sync.RWMutex
	file    *os.File
	written map[string]struct{}
}

func OpenWrittenLog(path string) (*WrittenLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	written := make(map[string]struct{})
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if id := strings.TrimSpace(scanner.Text()); id != "" {
				written[id] = struct{}{}
			}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &WrittenLog{file: file, written: written}, nil
}

func (l *WrittenLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *WrittenLog) Has(gameID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.written[gameID]
	return ok
}

func (l *WrittenLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.written)
}

// AddMany appends the new IDs among gameIDs and syncs once.
func (l *WrittenLog) AddMany(gameIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}

	var sb strings.Builder
	fresh := make([]string, 0, len(gameIDs))
	seen := make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		if id == "" {
			continue
		}
		if _, ok := l.written[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sb.WriteString(id)
		sb.WriteByte('\n')
		fresh = append(fresh, id)
	}
	if len(fresh) == 0 {
		return nil
	}

	if _, err := l.file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	for _, id := range fresh {
		l.written[id] = struct{}{}
	}
	return nil
}
