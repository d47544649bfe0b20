// Package walker discovers indexable source files under a project
// root, pruning excluded directories and streaming blobs for admitted
// files onto a caller-owned, bounded channel so the indexer never has
// to hold a whole project's decoded content in memory at once.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/decode"
	"github.com/standardbeagle/codectx/internal/ignore"
	"github.com/standardbeagle/codectx/internal/logging"
)

// Walk traverses root depth-first, pruning directories the matcher
// excludes and admitting files whose extension is in extensions and
// which the matcher does not exclude. Admitted files are decoded and
// split into blobs, sent on out in discovery order. Walk closes out
// before returning, whether it returns nil or an error, so a consumer
// ranging over out always terminates. A file that fails to open is
// logged and skipped; it never aborts the walk. Sends honor ctx
// cancellation so a blocked consumer cannot wedge the walk forever.
func Walk(ctx context.Context, root string, matcher *ignore.Matcher, extensions map[string]bool, maxLinesPerBlob int, log *logging.Logger, out chan<- blob.Blob) error {
	defer close(out)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = blob.NormalizePath(rel)

		if d.IsDir() {
			if matcher.ShouldExcludeDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.ShouldExclude(rel, false) {
			return nil
		}
		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		text, readErr := decode.File(path, log)
		if readErr != nil {
			if log != nil {
				log.Warnf("skipping %s: %v", rel, readErr)
			}
			return nil
		}

		for _, b := range blob.Split(rel, text, maxLinesPerBlob) {
			select {
			case out <- b:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}
