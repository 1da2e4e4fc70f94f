package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/movelearn/tutor/pkg/types"
)

// FSStore implements Store using the local file system.
// Directory structure:
// dataDir/
//
//	├── auth.json
//	└── transcripts/
//	    └── {name}.jsonl
type FSStore struct {
	rootDir string
	mu      sync.RWMutex

	authPath string
}

func NewFSStore(rootDir string) *FSStore {
	return &FSStore{
		rootDir:  rootDir,
		authPath: filepath.Join(rootDir, "auth.json"),
	}
}

// Root returns the data directory.
func (s *FSStore) Root() string {
	return s.rootDir
}

func (s *FSStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := []string{
		s.rootDir,
		filepath.Join(s.rootDir, "transcripts"),
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}

func (s *FSStore) Close() error {
	return nil
}

// --- Auth Operations ---

// LoadAuth returns the persisted auth record. A missing file yields the
// zero (logged out) record.
func (s *FSStore) LoadAuth(ctx context.Context) (types.AuthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadAuthLocked()
}

func (s *FSStore) loadAuthLocked() (types.AuthRecord, error) {
	var rec types.AuthRecord
	data, err := os.ReadFile(s.authPath)
	if os.IsNotExist(err) {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("read auth record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("corrupt auth record: %w", err)
	}
	return rec, nil
}

// SaveAuth merges patch into the persisted record and returns the result.
func (s *FSStore) SaveAuth(ctx context.Context, patch types.AuthRecord) (types.AuthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadAuthLocked()
	if err != nil {
		return current, err
	}
	merged := current.Merge(patch)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return current, err
	}
	if err := s.atomicWrite(s.authPath, data); err != nil {
		return current, fmt.Errorf("write auth record: %w", err)
	}
	return merged, nil
}

func (s *FSStore) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.authPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove auth record: %w", err)
	}
	return nil
}

// Token returns the bearer token of the persisted record, or "".
func (s *FSStore) Token() string {
	rec, err := s.LoadAuth(context.Background())
	if err != nil {
		return ""
	}
	return rec.TokenValue
}

func (s *FSStore) atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	f.Close()

	return os.Rename(tmpPath, path)
}

// --- Transcript Operations ---

func (s *FSStore) transcriptPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.rootDir, "transcripts", name+".jsonl"), nil
}

func (s *FSStore) AppendMessage(ctx context.Context, transcript string, msg types.ChatMessage) error {
	path, err := s.transcriptPath(transcript)
	if err != nil {
		return err
	}

	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Messages returns the transcript in append order. A missing transcript is
// empty.
func (s *FSStore) Messages(ctx context.Context, transcript string) ([]types.ChatMessage, error) {
	path, err := s.transcriptPath(transcript)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max line

	var msgs []types.ChatMessage
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg types.ChatMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("corrupt transcript line: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, scanner.Err()
}

func (s *FSStore) ClearTranscript(ctx context.Context, transcript string) error {
	path, err := s.transcriptPath(transcript)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove transcript: %w", err)
	}
	return nil
}
