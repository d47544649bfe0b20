package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/ignore"
	"github.com/standardbeagle/codectx/internal/logging"
)

func TestWalkAdmitsAllowedExtensionsAndPrunesExcluded(t *testing.T) {
	root := t.TempDir()

	mustWrite(t, filepath.Join(root, "main.go"), "package main\n")
	mustWrite(t, filepath.Join(root, "README.md"), "# hi\n")
	mustWrite(t, filepath.Join(root, "image.png"), "binary")
	mustMkdir(t, filepath.Join(root, "node_modules"))
	mustWrite(t, filepath.Join(root, "node_modules", "pkg.js"), "should not be walked")

	matcher := ignore.New(root, []string{"node_modules/"})
	extensions := map[string]bool{".go": true, ".md": true}

	blobs, err := collectBlobs(root, matcher, extensions, 800)
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, b := range blobs {
		paths[b.Path] = true
	}
	assert.True(t, paths["main.go"], "expected main.go to be admitted")
	assert.True(t, paths["README.md"], "expected README.md to be admitted")
	assert.False(t, paths["image.png"], "image.png should not be admitted (extension not allow-listed)")
	assert.False(t, paths["node_modules/pkg.js"], "node_modules should have been pruned, not walked")
}

func TestWalkClosesChannelOnCompletion(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "main.go"), "package main\n")

	matcher := ignore.New(root, nil)
	extensions := map[string]bool{".go": true}

	out := make(chan blob.Blob)
	done := make(chan error, 1)
	go func() {
		done <- Walk(context.Background(), root, matcher, extensions, 800, logging.NewDiscardLogger(), out)
	}()

	var count int
	for range out {
		count++
	}
	require.NoError(t, <-done)
	assert.Equal(t, 1, count)
}

func TestWalkRespectsContextCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		mustWrite(t, filepath.Join(root, string(rune('a'+i))+".go"), "package main\n")
	}

	matcher := ignore.New(root, nil)
	extensions := map[string]bool{".go": true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An unbuffered channel with nobody reading forces the first send in
	// Walk to block on ctx.Done() instead, exercising the cancellation path.
	out := make(chan blob.Blob)
	err := Walk(ctx, root, matcher, extensions, 800, logging.NewDiscardLogger(), out)
	assert.Error(t, err, "expected context cancellation error")
}

func collectBlobs(root string, matcher *ignore.Matcher, extensions map[string]bool, maxLinesPerBlob int) ([]blob.Blob, error) {
	out := make(chan blob.Blob, 64)
	done := make(chan error, 1)
	go func() {
		done <- Walk(context.Background(), root, matcher, extensions, maxLinesPerBlob, logging.NewDiscardLogger(), out)
	}()

	var blobs []blob.Blob
	for b := range out {
		blobs = append(blobs, b)
	}
	return blobs, <-done
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}
