package facade

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/config"
	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/registry"
)

type stubUploader struct{}

func (stubUploader) UploadBatch(ctx context.Context, blobs []blob.Blob) ([]string, error) {
	ids := make([]string, len(blobs))
	for i, b := range blobs {
		ids[i] = b.Identity
	}
	return ids, nil
}

type stubSearcher struct {
	text string
	err  error
}

func (s stubSearcher) Search(ctx context.Context, query string, identities []string) (string, error) {
	return s.text, s.err
}

func TestSearchContextRejectsEmptyQuery(t *testing.T) {
	reg, _ := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	f := New(reg, stubUploader{}, stubSearcher{text: "ok"}, config.Default(), nil, logging.NewDiscardLogger())

	got := f.SearchContext(context.Background(), t.TempDir(), "")
	assert.Equal(t, "Error: query must not be empty", got)
}

func TestSearchContextReturnsFormattedRetrieval(t *testing.T) {
	root := t.TempDir()
	reg, _ := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	f := New(reg, stubUploader{}, stubSearcher{text: "found: main.go"}, config.Default(), nil, logging.NewDiscardLogger())

	got := f.SearchContext(context.Background(), root, "where is main")
	assert.Equal(t, "found: main.go", got)
}

func TestSearchContextSurfacesSearchErrorAsText(t *testing.T) {
	root := t.TempDir()
	reg, _ := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	f := New(reg, stubUploader{}, stubSearcher{err: errBoom{}}, config.Default(), nil, logging.NewDiscardLogger())

	got := f.SearchContext(context.Background(), root, "anything")
	assert.True(t, len(got) >= 7 && got[:7] == "Error: ", "expected an Error: prefixed string, got %q", got)
}

func TestSearchContextRejectsInvalidProjectRoot(t *testing.T) {
	reg, _ := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	f := New(reg, stubUploader{}, stubSearcher{text: "ok"}, config.Default(), nil, logging.NewDiscardLogger())

	got := f.SearchContext(context.Background(), "relative/path", "query")
	assert.True(t, len(got) >= 7 && got[:7] == "Error: ", "expected an Error: prefixed string, got %q", got)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestLastRunStatusReflectsIndexerState(t *testing.T) {
	root := t.TempDir()
	reg, _ := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	f := New(reg, stubUploader{}, stubSearcher{text: "ok"}, config.Default(), nil, logging.NewDiscardLogger())

	normalized, err := f.NormalizeProjectRoot(root)
	require.NoError(t, err)

	_, hasRun := f.LastRunStatus(normalized)
	assert.False(t, hasRun, "expected hasRun=false before any pass")

	f.SearchContext(context.Background(), root, "where is main")

	fullyConfirmed, hasRun := f.LastRunStatus(normalized)
	require.True(t, hasRun, "expected hasRun=true after a pass")
	assert.True(t, fullyConfirmed, "expected fullyConfirmed=true when the stub uploader never fails")
}
