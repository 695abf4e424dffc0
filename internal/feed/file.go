// Package feed provides message-source implementations. The channel
// connector proper (session management, MTProto) is an external
// collaborator; this package reads exported message dumps, which is enough
// for the one-shot CLI, the queue worker and tests.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"alideal-affiliate-relay/internal/pipeline"
)

// FileSource reads messages from <dir>/<channel>.jsonl, one JSON message
// per line, newest first. It also serves as a history scanner for the
// feed-backed ledger when pointed at an export of the destination channel.
type FileSource struct {
	dir    string
	logger *zap.SugaredLogger
}

func NewFileSource(dir string, logger *zap.SugaredLogger) *FileSource {
	return &FileSource{dir: dir, logger: logger}
}

func (s *FileSource) Messages(_ context.Context, channel string, limit int) ([]pipeline.Message, error) {
	path := s.path(channel)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed export %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var msgs []pipeline.Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg pipeline.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			s.logger.Warnw("feed_export_bad_line", "path", path, "err", err)
			continue
		}
		msgs = append(msgs, msg)

		if limit > 0 && len(msgs) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feed export %s: %w", path, err)
	}

	return msgs, nil
}

// RecentTexts implements the ledger's history-scanner collaborator over the
// same export format.
func (s *FileSource) RecentTexts(ctx context.Context, channel string, limit int) ([]string, error) {
	msgs, err := s.Messages(ctx, channel, limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	return texts, nil
}

func (s *FileSource) path(channel string) string {
	name := strings.TrimPrefix(strings.TrimSpace(channel), "@")
	return filepath.Join(s.dir, name+".jsonl")
}
