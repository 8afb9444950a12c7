package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const spoolFileName = "audit_spool.log"

// spool is the append-only JSONL file every audit event is written to
// before any NATS publish. Once the spool directory holds maxSize bytes
// or more, the live file is rotated to a replay_*.log file and a fresh
// spool starts rather than silently dropping events.
type spool struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
}

func newSpool(dir string, maxSize int64) *spool {
	os.MkdirAll(dir, 0o750)
	return &spool{dir: dir, maxSize: maxSize}
}

func (s *spool) write(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size() >= s.maxSize {
		if err := s.rotate(); err != nil {
			return fmt.Errorf("spool full and rotation failed: %w", err)
		}
	}

	line, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, spoolFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *spool) size() int64 {
	var total int64
	filepath.Walk(s.dir, func(_ string, info fs.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

func (s *spool) rotate() error {
	path := filepath.Join(s.dir, spoolFileName)
	replay := filepath.Join(s.dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
	if err := os.Rename(path, replay); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// drain replays every queued replay_*.log and the live spool file through
// emit, removing each file once its events have been handed off.
func (s *spool) drain(emit func(Event) error, logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, _ := filepath.Glob(filepath.Join(s.dir, "replay_*.log"))
	livePath := filepath.Join(s.dir, spoolFileName)
	if _, err := os.Stat(livePath); err == nil {
		replay := filepath.Join(s.dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
		if err := os.Rename(livePath, replay); err == nil {
			matches = append(matches, replay)
		}
	}

	for _, path := range matches {
		s.drainFile(path, emit, logger)
	}
}

func (s *spool) drainFile(path string, emit func(Event) error, logger *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var flushed int
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		if err := emit(evt); err != nil {
			// Still undelivered: stop and keep this whole file for the next
			// drain attempt (events already emitted from it are sent again).
			return
		}
		flushed++
	}
	os.Remove(path)
	if flushed > 0 && logger != nil {
		logger.Info("audit spool drained", slog.Int("events", flushed), slog.String("file", path))
	}
}
