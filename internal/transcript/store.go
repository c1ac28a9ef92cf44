// Package transcript keeps the output of workflow steps on disk, one
// directory per session, so it survives after the workflow TUI exits.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Store struct {
	dir     string
	maxSize int64         // max total size in bytes
	ttl     time.Duration // entry TTL
}

// Meta describes one session's transcript directory.
type Meta struct {
	Session   string    `json:"session"`
	Container string    `json:"container"`
	QueryPath string    `json:"query_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is a stored session with computed fields.
type Entry struct {
	Meta
	Steps        []int
	LastModified time.Time
	Size         int64
	Path         string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func New(dir string, maxSizeMB int, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Store{
		dir:     dir,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		ttl:     ttl,
	}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) sessionDir(session string) string {
	name := unsafeChars.ReplaceAllString(session, "_")
	if name == "" {
		name = "_"
	}
	return filepath.Join(s.dir, "session-"+name)
}

func stepFile(step int) string {
	return fmt.Sprintf("step-%d.log", step)
}

// Append opens the transcript of one step for appending, creating the
// session directory as needed.
func (s *Store) Append(session string, step int) (io.WriteCloser, error) {
	dir := s.sessionDir(session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, stepFile(step)), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open step transcript: %w", err)
	}
	return f, nil
}

// Read returns the stored output of one step.
func (s *Store) Read(session string, step int) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.sessionDir(session), stepFile(step)))
	if err != nil {
		return "", fmt.Errorf("read step %d transcript: %w", step, err)
	}
	return string(data), nil
}

// ReadAll concatenates every stored step of a session in step order.
func (s *Store) ReadAll(session string) (string, error) {
	steps, err := s.steps(s.sessionDir(session))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, step := range steps {
		text, err := s.Read(session, step)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "=== Step %d ===\n", step)
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func (s *Store) steps(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var steps []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "step-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "step-"), ".log"))
		if err != nil {
			continue
		}
		steps = append(steps, n)
	}
	sort.Ints(steps)
	return steps, nil
}

// WriteMeta writes meta.json in the session's directory. CreatedAt is kept
// from an earlier write when present.
func (s *Store) WriteMeta(meta Meta) error {
	dir := s.sessionDir(meta.Session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if prev, err := s.ReadMeta(meta.Session); err == nil && !prev.CreatedAt.IsZero() {
		meta.CreatedAt = prev.CreatedAt
	}
	now := time.Now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o644)
}

// ReadMeta reads meta.json from a session directory.
func (s *Store) ReadMeta(session string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(s.sessionDir(session), "meta.json"))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListEntries returns every stored session, most recently modified first.
func (s *Store) ListEntries() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var result []Entry
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "session-") {
			continue
		}
		dirPath := filepath.Join(s.dir, e.Name())
		entry := Entry{Path: dirPath}

		data, err := os.ReadFile(filepath.Join(dirPath, "meta.json"))
		if err == nil {
			_ = json.Unmarshal(data, &entry.Meta)
		}
		if entry.Session == "" {
			entry.Session = strings.TrimPrefix(e.Name(), "session-")
		}
		entry.Steps, _ = s.steps(dirPath)
		entry.Size, entry.LastModified = dirStats(dirPath)
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastModified.After(result[j].LastModified)
	})
	return result, nil
}

// Delete removes a session's transcripts.
func (s *Store) Delete(session string) error {
	return os.RemoveAll(s.sessionDir(session))
}

// Evict removes expired files, then the oldest ones until the store fits
// its size cap. Session directories left empty are removed too.
func (s *Store) Evict() error {
	type file struct {
		path    string
		modTime time.Time
		size    int64
	}

	var files []file
	var totalSize int64

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		files = append(files, file{path: path, modTime: info.ModTime(), size: info.Size()})
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return err
	}

	now := time.Now()
	remaining := files[:0]
	for _, f := range files {
		if s.ttl > 0 && now.Sub(f.modTime) > s.ttl {
			os.Remove(f.path)
			totalSize -= f.size
		} else {
			remaining = append(remaining, f)
		}
	}
	files = remaining

	if s.maxSize > 0 && totalSize > s.maxSize {
		sort.Slice(files, func(i, j int) bool {
			return files[i].modTime.Before(files[j].modTime)
		})
		for _, f := range files {
			if totalSize <= s.maxSize {
				break
			}
			os.Remove(f.path)
			totalSize -= f.size
		}
	}

	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, d.Name())
		if rest, err := os.ReadDir(path); err == nil && len(rest) == 0 {
			os.Remove(path)
		}
	}
	return nil
}

// TotalSize returns the store size in bytes.
func (s *Store) TotalSize() (int64, error) {
	size, _ := dirStats(s.dir)
	return size, nil
}

func dirStats(path string) (int64, time.Time) {
	var size int64
	var latest time.Time
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return size, latest
}
