package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// File persists the ledger as a newline-delimited list of product
// identifiers: load-at-startup, append-on-success. It stores no timestamps,
// so deduplication through this backend is always permanent.
type File struct {
	path   string
	mem    *Memory
	logger *zap.SugaredLogger

	mu sync.Mutex
}

func NewFile(path string, logger *zap.SugaredLogger) (*File, error) {
	f := &File{
		path:   path,
		mem:    NewMemory(0),
		logger: logger,
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer func() { _ = file.Close() }()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		_ = f.mem.Record(context.Background(), PostRecord{ProductID: id})
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ledger file: %w", err)
	}

	f.logger.Infow("ledger_file_loaded", "path", f.path, "ids", count)
	return nil
}

func (f *File) Seen(ctx context.Context, productID string) (bool, error) {
	return f.mem.Seen(ctx, productID)
}

func (f *File) Record(ctx context.Context, rec PostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file for append: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := fmt.Fprintln(file, rec.ProductID); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	return f.mem.Record(ctx, rec)
}
