package sink_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oakline-data/edgaringest/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_PutThenExists(t *testing.T) {
	s := sink.NewLocalSink(t.TempDir())
	ctx := context.Background()

	ok, err := s.Exists(ctx, "companies/AAPL/10-K/2023/annual/llm.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "companies/AAPL/10-K/2023/annual/llm.txt", []byte("content")))

	ok, err = s.Exists(ctx, "companies/AAPL/10-K/2023/annual/llm.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalSink_PutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := sink.NewLocalSink(dir)
	require.NoError(t, s.Put(context.Background(), "a/b/c.txt", []byte("x")))

	entries, err := os.ReadDir(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestLocalSink_RecordMetadata(t *testing.T) {
	dir := t.TempDir()
	s := sink.NewLocalSink(dir)
	id := sink.FilingID("AAPL", "10-K", 2023, "annual")

	err := s.RecordMetadata(context.Background(), id, map[string]string{"source": "registry"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".metadata", id+".json"))
	require.NoError(t, err)

	var attrs map[string]string
	require.NoError(t, json.Unmarshal(data, &attrs))
	assert.Equal(t, "registry", attrs["source"])
}

func TestFilingID_Format(t *testing.T) {
	assert.Equal(t, "AAPL-10-K-2023-annual", sink.FilingID("AAPL", "10-K", 2023, "annual"))
}
