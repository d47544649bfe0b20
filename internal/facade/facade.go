// Package facade exposes the single public operation the rest of the
// system calls: search_context(project_root, query). It never lets an
// internal error escape as a Go error past its boundary — every
// failure is turned into a formatted "Error: ..." string, since its
// caller is a tool-invocation protocol handler that expects a text
// result, not an exception.
package facade

import (
	"context"
	"fmt"

	"github.com/standardbeagle/codectx/internal/config"
	"github.com/standardbeagle/codectx/internal/indexer"
	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/metrics"
	"github.com/standardbeagle/codectx/internal/registry"
)

const maxQueryLength = 10000

// Searcher is the subset of *retrieval.Client the facade needs.
type Searcher interface {
	Search(ctx context.Context, query string, identities []string) (string, error)
}

// Facade wires the orchestrator and search client behind the one
// operation callers invoke.
type Facade struct {
	Indexer  *indexer.Indexer
	Search   Searcher
	Settings *config.Settings
	Metrics  *metrics.Registry
	Log      *logging.Logger
}

// New builds a Facade from its collaborators.
func New(reg *registry.Registry, upload indexer.Uploader, search Searcher, settings *config.Settings, m *metrics.Registry, log *logging.Logger) *Facade {
	return &Facade{
		Indexer:  indexer.New(reg, upload, m, log),
		Search:   search,
		Settings: settings,
		Metrics:  m,
		Log:      log,
	}
}

// SearchContext runs one orchestrator pass over projectRoot, then
// issues one search call with the post-merge identity set, returning
// the formatted retrieval text. Any failure at any stage is rendered
// as an "Error: ..." string rather than returned as a Go error — the
// facade boundary never panics or propagates a typed error outward.
func (f *Facade) SearchContext(ctx context.Context, projectRoot, query string) string {
	if query == "" {
		return "Error: query must not be empty"
	}
	if len(query) > maxQueryLength {
		return fmt.Sprintf("Error: query exceeds maximum length of %d characters", maxQueryLength)
	}

	identities, err := f.Indexer.Run(ctx, projectRoot, f.Settings)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if f.Metrics != nil {
		f.Metrics.SearchRequests.Inc()
	}

	text, err := f.Search.Search(ctx, query, identities)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return text
}

// NormalizeProjectRoot exposes the orchestrator's project root
// validation so callers (e.g. the index_status tool) can report on a
// project without running a full indexing pass.
func (f *Facade) NormalizeProjectRoot(projectRoot string) (string, error) {
	return indexer.ValidateProjectRoot(projectRoot)
}

// KnownIdentityCount returns the number of blob identities currently
// persisted in the registry for the given (already-normalized)
// project root, without triggering a walk or upload.
func (f *Facade) KnownIdentityCount(projectRoot string) int {
	return len(f.Indexer.Registry.Get(projectRoot))
}

// LastRunStatus reports whether an indexing pass has run for
// projectRoot in this process and, if so, whether every blob
// discovered during that pass was confirmed uploaded.
func (f *Facade) LastRunStatus(projectRoot string) (fullyConfirmed bool, hasRun bool) {
	return f.Indexer.LastRunStatus(projectRoot)
}
