// Package indexer drives one full incremental indexing pass: walk,
// filter, split, diff against the registry, dispatch concurrent
// upload batches, and merge confirmed identities.
package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/config"
	"github.com/standardbeagle/codectx/internal/ignore"
	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/metrics"
	"github.com/standardbeagle/codectx/internal/registry"
	"github.com/standardbeagle/codectx/internal/walker"
	"github.com/standardbeagle/codectx/internal/xerrors"
)

const (
	maxProjectRootLength = 4096
	// inFlightMultiplier bounds the walker-to-uploader pipeline buffer
	// at batchSize*maxConcurrentUploads*inFlightMultiplier blobs, so a
	// project tree is never fully materialized in memory at once.
	inFlightMultiplier = 4
)

// Uploader is the subset of *retrieval.Client the orchestrator needs,
// narrowed so tests can supply a fake.
type Uploader interface {
	UploadBatch(ctx context.Context, blobs []blob.Blob) ([]string, error)
}

// runStatus records the outcome of the most recent pass over a project
// root, kept only for the lifetime of this process.
type runStatus struct {
	fullyConfirmed bool
}

// Indexer runs orchestrator passes against one project registry.
type Indexer struct {
	Registry *registry.Registry
	Upload   Uploader
	Metrics  *metrics.Registry
	Log      *logging.Logger

	mu      sync.Mutex
	lastRun map[string]runStatus
}

// New builds an Indexer from its collaborators. metrics may be nil to
// disable instrumentation.
func New(reg *registry.Registry, upload Uploader, m *metrics.Registry, log *logging.Logger) *Indexer {
	return &Indexer{Registry: reg, Upload: upload, Metrics: m, Log: log, lastRun: make(map[string]runStatus)}
}

// ValidateProjectRoot normalizes and canonicalizes root: must be
// absolute, resolved through any symlinks so that two different
// symlinked paths to the same directory produce the same registry
// key, free of ".." after normalization, and no longer than 4096
// characters.
func ValidateProjectRoot(root string) (string, error) {
	if root == "" {
		return "", xerrors.NewInvalidInputError("project_root", root, fmt.Errorf("empty"))
	}
	if !filepath.IsAbs(root) {
		return "", xerrors.NewInvalidInputError("project_root", root, fmt.Errorf("not an absolute path"))
	}

	resolved, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", xerrors.NewInvalidInputError("project_root", root, fmt.Errorf("resolving project root: %w", err))
	}

	normalized := filepath.ToSlash(resolved)
	if len(normalized) > maxProjectRootLength {
		return "", xerrors.NewInvalidInputError("project_root", root, fmt.Errorf("exceeds %d characters", maxProjectRootLength))
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", xerrors.NewInvalidInputError("project_root", root, fmt.Errorf("contains .. after normalization"))
		}
	}
	return normalized, nil
}

// Run performs one full pass over root using settings, returning the
// post-merge identity set for the project. The walker streams blobs
// onto a bounded channel so at most batchSize*maxConcurrentUploads*4
// blobs are ever in flight between discovery and upload.
func (ix *Indexer) Run(ctx context.Context, root string, settings *config.Settings) ([]string, error) {
	root, err := ValidateProjectRoot(root)
	if err != nil {
		return nil, err
	}

	matcher := ignore.New(root, settings.ExcludePatterns)
	if ix.Log != nil {
		ix.Log.Debugf("effective exclude patterns for %s: %v", root, matcher.ActivePatterns())
	}
	known := toSet(ix.Registry.Get(root))

	bufferSize := settings.BatchSize * settings.MaxConcurrentUploads * inFlightMultiplier
	if bufferSize <= 0 {
		bufferSize = 1
	}
	blobCh := make(chan blob.Blob, bufferSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := walker.Walk(gctx, root, matcher, settings.ExtensionSet(), settings.MaxLinesPerBlob, ix.Log, blobCh)
		if err != nil {
			return xerrors.NewFileReadError(root, "walk", err)
		}
		return nil
	})

	var confirmed []string
	var attempted int
	g.Go(func() error {
		var err error
		confirmed, attempted, err = ix.consume(gctx, blobCh, known, settings.BatchSize, settings.MaxConcurrentUploads)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fullyConfirmed := attempted == 0 || len(confirmed) == attempted
	ix.mu.Lock()
	ix.lastRun[root] = runStatus{fullyConfirmed: fullyConfirmed}
	ix.mu.Unlock()

	if len(confirmed) > 0 {
		merged, err := ix.Registry.MergeAndSave(root, confirmed)
		if err != nil {
			return nil, err
		}
		if ix.Metrics != nil {
			ix.Metrics.BlobsConfirmed.Add(float64(len(confirmed)))
		}
		return merged, nil
	}
	return ix.Registry.Get(root), nil
}

// LastRunStatus reports whether a pass has run for root in this
// process and, if so, whether every blob discovered during that pass
// was confirmed by the retrieval API.
func (ix *Indexer) LastRunStatus(root string) (fullyConfirmed bool, hasRun bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	status, ok := ix.lastRun[root]
	return status.fullyConfirmed, ok
}

// consume drains blobCh, batching fresh (not already known) blobs and
// dispatching each full batch for upload as soon as it fills, with at
// most maxConcurrent batches in flight. It returns the confirmed
// identities and the total number of blobs attempted.
func (ix *Indexer) consume(ctx context.Context, blobCh <-chan blob.Blob, known map[string]bool, batchSize, maxConcurrent int) ([]string, int, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	var mu sync.Mutex
	var confirmed []string
	var attempted int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	dispatch := func(batch []blob.Blob) {
		attempted += len(batch)
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			started := time.Now()
			ids, err := ix.Upload.UploadBatch(gctx, batch)
			if ix.Metrics != nil {
				ix.Metrics.BatchLatency.Observe(time.Since(started).Seconds())
			}
			if err != nil {
				if ix.Log != nil {
					ix.Log.Warnf("upload batch of %d blobs failed, skipping: %v", len(batch), err)
				}
				if ix.Metrics != nil {
					ix.Metrics.UploadRetries.Inc()
				}
				return nil
			}
			mu.Lock()
			confirmed = append(confirmed, ids...)
			mu.Unlock()
			if ix.Metrics != nil {
				ix.Metrics.BlobsUploaded.Add(float64(len(ids)))
			}
			return nil
		})
	}

	var batch []blob.Blob
	for b := range blobCh {
		if ix.Metrics != nil {
			ix.Metrics.BlobsDiscovered.Inc()
		}
		if known[b.Identity] {
			continue
		}
		batch = append(batch, b)
		if len(batch) >= batchSize {
			dispatch(batch)
			batch = nil
		}
	}
	if len(batch) > 0 {
		dispatch(batch)
	}

	_ = g.Wait() // batch failures are swallowed inside each goroutine; nothing to propagate
	return confirmed, attempted, nil
}

func toSet(identities []string) map[string]bool {
	set := make(map[string]bool, len(identities))
	for _, id := range identities {
		set[id] = true
	}
	return set
}
