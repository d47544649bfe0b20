package blob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityStableAcrossCalls(t *testing.T) {
	a := Identity("foo.go", "package foo")
	b := Identity("foo.go", "package foo")
	assert.Equal(t, a, b, "identity must be stable across calls")
}

func TestIdentityDependsOnLabel(t *testing.T) {
	a := Identity("foo.go", "x")
	b := Identity("foo.go#0", "x")
	assert.NotEqual(t, a, b, "different labels must produce different identities")
}

func TestSplitUnderLimitProducesSingleUnsplitBlob(t *testing.T) {
	text := "line1\nline2\nline3\n"
	blobs := Split("small.go", text, 10)
	require.Len(t, blobs, 1)
	assert.Equal(t, -1, blobs[0].Fragment)
	assert.Equal(t, "small.go", blobs[0].Label())
}

func TestSplitOverLimitProducesNumberedFragments(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("x\n")
	}
	blobs := Split("big.go", b.String(), 10)

	require.Len(t, blobs, 3)
	for i, blob := range blobs {
		assert.Equal(t, i, blob.Fragment)
	}
	assert.NotEmpty(t, blobs[len(blobs)-1].Content, "trailing fragment must not be empty")
}

func TestSplitExactMultipleHasNoTrailingEmptyFragment(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("x\n")
	}
	blobs := Split("exact.go", b.String(), 10)
	require.Len(t, blobs, 2)
}

func TestSplitReconstructsOriginalContent(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 23; i++ {
		b.WriteString("line\n")
	}
	original := b.String()
	blobs := Split("reconstruct.go", original, 7)

	var rebuilt strings.Builder
	for _, blob := range blobs {
		rebuilt.WriteString(blob.Content)
	}
	assert.Equal(t, original, rebuilt.String(), "rejoined fragments must reproduce the original content")
}
