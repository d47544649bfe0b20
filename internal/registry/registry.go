// Package registry persists each project's known blob identities
// across invocations as a single JSON document under the user data
// directory, keyed by project.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/standardbeagle/codectx/internal/xerrors"
)

// document is the on-disk shape: a flat map of project key to its
// identity list, with no enclosing wrapper object.
type document map[string][]string

// Registry is the in-process, concurrency-safe handle to the
// persisted document. Load→merge→save is serialized via a single
// in-process lock so the union policy never drops an identity.
type Registry struct {
	path string

	mu  sync.Mutex // guards doc and serializes merge->save against the file
	doc document
}

// Open loads (or initializes) the registry document at path. A
// missing file is not an error; an unparseable one is.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, doc: document{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, xerrors.NewFileReadError(path, "read", err)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.doc); err != nil {
		return nil, xerrors.NewRegistryCorruptError(path, err)
	}
	if r.doc == nil {
		r.doc = document{}
	}
	return r, nil
}

// Get returns the current identity set for projectKey, empty if the
// project is unknown.
func (r *Registry) Get(projectKey string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.doc[projectKey]
	out := make([]string, len(existing))
	copy(out, existing)
	return out
}

// MergeAndSave computes the union of newIdentities with the existing
// set for projectKey and persists the whole document atomically
// (write-temp-then-rename). It returns the merged identity set.
func (r *Registry) MergeAndSave(projectKey string, newIdentities []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := union(r.doc[projectKey], newIdentities)
	r.doc[projectKey] = merged

	if err := writeAtomic(r.path, r.doc); err != nil {
		return nil, err
	}

	out := make([]string, len(merged))
	copy(out, merged)
	return out, nil
}

func union(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, id := range existing {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range added {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func writeAtomic(path string, doc document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerrors.NewFileReadError(path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return xerrors.NewFileReadError(path, "create-temp", err)
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return xerrors.NewFileReadError(path, "encode", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return xerrors.NewFileReadError(path, "sync", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return xerrors.NewFileReadError(path, "close-temp", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return xerrors.NewFileReadError(path, "rename", err)
	}
	return nil
}
