package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/oakline-data/edgaringest/internal/serializer"
	"github.com/rotisserie/eris"
)

// LocalSink writes artifacts to a directory tree rooted at Root and
// persists filing metadata as one JSON file per filing id, used when
// the CLI's `--skip-upload` flag is set.
type LocalSink struct {
	Root string

	mu sync.Mutex
}

// NewLocalSink returns a LocalSink rooted at dir. dir is created lazily
// on first write.
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{Root: dir}
}

// Put writes data to Root/path via write-then-rename, so a crash never
// leaves a half-written artifact visible at path.
func (s *LocalSink) Put(_ context.Context, path string, data []byte) error {
	if err := serializer.WriteArtifact(filepath.Join(s.Root, path), data); err != nil {
		return eris.Wrapf(err, "sink: put %s", path)
	}
	return nil
}

// Exists reports whether path has already been committed.
func (s *LocalSink) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.Root, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, eris.Wrapf(err, "sink: stat %s", path)
}

// RecordMetadata upserts a filing's attributes as a JSON file under
// Root/.metadata/<filing_id>.json. Guarded by a mutex since multiple
// ticker workers may share one LocalSink.
func (s *LocalSink) RecordMetadata(_ context.Context, filingID string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "sink: marshal metadata for %s", filingID)
	}

	path := filepath.Join(s.Root, ".metadata", filingID+".json")
	if err := serializer.WriteArtifact(path, data); err != nil {
		return eris.Wrapf(err, "sink: record metadata for %s", filingID)
	}
	return nil
}
