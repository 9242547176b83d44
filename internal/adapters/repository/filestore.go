package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/pkg/logger"
	"github.com/okian/leaguestats/pkg/metrics"
)

const defaultFileMode = 0o644

// legacyLayouts are timestamp formats written by older versions of the job,
// interpreted in local time. Locale spaces are normalized before matching.
var legacyLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"2006-01-02 15:04:05",
}

// localeSpaces maps the no-break spaces emitted by locale formatting
// (e.g. before AM/PM) to ASCII spaces.
var localeSpaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// FileStore keeps the collection as a compact JSON array in a single file.
// Writes go to a temporary file that is renamed over the target, so readers
// never observe a partially written collection.
type FileStore struct {
	path   string
	mode   os.FileMode
	logger logger.Logger
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		mode: defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) log() logger.Logger {
	if s.logger == nil {
		return logger.Named("repository")
	}
	return s.logger
}

// storedSnapshot shadows UpdatedAt so legacy timestamps can be parsed.
type storedSnapshot struct {
	model.Snapshot
	UpdatedAt string `json:"updated_at"`
}

// Load reads the collection. A missing file or content that is not a JSON
// array yields an empty collection. Elements that cannot be decoded are
// skipped.
func (s *FileStore) Load(ctx context.Context) (model.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log().Warn(ctx, "stored snapshots are not a JSON array; starting empty",
			logger.String("path", s.path), logger.Error(err))
		return model.Collection{}, nil
	}

	out := make(model.Collection, 0, len(raw))
	skipped := 0
	for i, elem := range raw {
		snap, err := decodeSnapshot(elem)
		if err != nil {
			skipped++
			s.log().Warn(ctx, "skipping unreadable snapshot",
				logger.Int("index", i), logger.Error(err))
			continue
		}
		out = append(out, snap)
	}
	if skipped > 0 {
		metrics.AddSnapshotsUnreadable(skipped)
	}
	return out, nil
}

func decodeSnapshot(elem json.RawMessage) (model.Snapshot, error) {
	var st storedSnapshot
	if err := json.Unmarshal(elem, &st); err != nil {
		return model.Snapshot{}, err
	}
	if st.Name == "" {
		return model.Snapshot{}, errors.New("missing name")
	}
	ts, err := parseTimestamp(st.UpdatedAt)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap := st.Snapshot
	snap.UpdatedAt = ts
	return snap, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	legacy := localeSpaces.Replace(v)
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, legacy, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised updated_at %q", v)
}

// Save writes c as compact JSON, replacing any previous content.
func (s *FileStore) Save(ctx context.Context, c model.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		c = model.Collection{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWrite, err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := renameio.WriteFile(s.path, data, s.mode, renameio.WithStaticPermissions(s.mode)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
