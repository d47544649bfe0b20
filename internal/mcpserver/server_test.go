package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/config"
	"github.com/standardbeagle/codectx/internal/facade"
	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/registry"
)

func requestWith(args json.RawMessage) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: args}}
}

func firstText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

func filepathToSlash(path string) string {
	normalized, err := (&facade.Facade{}).NormalizeProjectRoot(path)
	if err != nil {
		return path
	}
	return normalized
}

type stubUploader struct{}

func (stubUploader) UploadBatch(ctx context.Context, blobs []blob.Blob) ([]string, error) {
	ids := make([]string, len(blobs))
	for i, b := range blobs {
		ids[i] = b.Identity
	}
	return ids, nil
}

type stubSearcher struct{ text string }

func (s stubSearcher) Search(ctx context.Context, query string, identities []string) (string, error) {
	return s.text, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "projects.json"))
	require.NoError(t, err)
	f := facade.New(reg, stubUploader{}, stubSearcher{text: "relevant code here"}, config.Default(), nil, logging.NewDiscardLogger())
	return New(f, "codectx-test", "0.0.0", logging.NewDiscardLogger())
}

func TestHandleSearchContextReturnsText(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()

	args, _ := json.Marshal(searchContextParams{ProjectRootPath: root, Query: "where is main"})
	result, err := srv.handleSearchContext(context.Background(), requestWith(args))
	require.NoError(t, err)
	assert.Equal(t, "relevant code here", firstText(result))
}

func TestHandleSearchContextMalformedParamsReturnsErrorText(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.handleSearchContext(context.Background(), requestWith(json.RawMessage(`not json`)))
	require.NoError(t, err)
	text := firstText(result)
	assert.True(t, len(text) >= 7 && text[:7] == "Error: ", "expected an Error: prefixed string, got %q", text)
}

func TestHandleIndexStatusReportsZeroAndNoRunForFreshProject(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()

	args, _ := json.Marshal(indexStatusParams{ProjectRootPath: root})
	result, err := srv.handleIndexStatus(context.Background(), requestWith(args))
	require.NoError(t, err)
	text := firstText(result)
	assert.Contains(t, text, "project: "+filepathToSlash(root))
	assert.Contains(t, text, "blob identities indexed: 0")
	assert.Contains(t, text, "no indexing pass has run")
}

func TestHandleIndexStatusReportsFullyConfirmedAfterSearch(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "main.go"), "package main\n")

	searchArgs, _ := json.Marshal(searchContextParams{ProjectRootPath: root, Query: "entry point"})
	_, err := srv.handleSearchContext(context.Background(), requestWith(searchArgs))
	require.NoError(t, err)

	statusArgs, _ := json.Marshal(indexStatusParams{ProjectRootPath: root})
	result, err := srv.handleIndexStatus(context.Background(), requestWith(statusArgs))
	require.NoError(t, err)
	text := firstText(result)
	assert.Contains(t, text, "blob identities indexed: 1")
	assert.Contains(t, text, "fully confirmed")
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
