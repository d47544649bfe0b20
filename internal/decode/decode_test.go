package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/standardbeagle/codectx/internal/logging"
)

func TestFileDecodesUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utf8.go")
	want := "package main\n\n// héllo wörld\n"
	require.NoError(t, os.WriteFile(path, []byte(want), 0o644))

	got, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileDecodesGBK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gbk.txt")

	original := "你好，世界"
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(original)
	require.NoError(t, err, "encode GBK fixture")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	got, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestFileFallsBackToLatin1ForBytesInvalidAsUTF8AndGBK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.bin")

	garbage := []byte{0xff, 0xfe, 0x00, 0x01, 'h', 'i'}
	require.NoError(t, os.WriteFile(path, garbage, 0o644))

	got, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, got, "expected non-empty lossy fallback text")
}

func TestFileMissingReturnsFileReadError(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.go"), logging.NewDiscardLogger())
	require.Error(t, err, "expected an error for a missing file")
}

// TestFileStreamsFilesOverStreamingThreshold exercises the
// decodeLarge path with a file past streamingThreshold, confirming the
// chunked read produces the same text a small-file decode would and
// that a rune repeated across chunk boundaries survives intact.
func TestFileStreamsFilesOverStreamingThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large.go")

	line := "// héllo wörld, this line repeats to push the file past the streaming threshold\n"
	repeats := streamingThreshold/len(line) + 1024

	var want bytes.Buffer
	want.WriteString("package main\n\n")
	for i := 0; i < repeats; i++ {
		want.WriteString(line)
	}

	require.Greater(t, want.Len(), streamingThreshold, "fixture must exceed the streaming threshold")
	require.NoError(t, os.WriteFile(path, want.Bytes(), 0o644))

	got, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	require.Equal(t, want.String(), got, "decoded content mismatch")
	assert.Equal(t, repeats, strings.Count(got, "héllo wörld"), "expected occurrences of the repeated multi-byte phrase")
}

// TestFileStreamsGBKOverStreamingThreshold confirms the encoded-candidate
// path (transform.NewReader fed directly from the file handle) also
// works past streamingThreshold.
func TestFileStreamsGBKOverStreamingThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large_gbk.txt")

	original := strings.Repeat("你好，世界，这是一个测试文件\n", streamingThreshold/24+4096)
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(original)
	require.NoError(t, err, "encode GBK fixture")
	require.Greater(t, len(encoded), streamingThreshold, "fixture must exceed the streaming threshold")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	got, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, original, got)
}
