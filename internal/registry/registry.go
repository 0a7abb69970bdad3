// Package registry maintains the set of previewable source documents,
// derived from a configured directory. The registry is read-only during a
// chat turn and may be shared across sessions.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Document describes one file known to the registry.
type Document struct {
	Name string // basename as it appears on disk
	Path string // absolute path
	Size int64
}

// Registry is a case-insensitive index of document filenames under a root
// directory. Lookups are pure in-memory operations; rescanning is explicit.
type Registry struct {
	dir     string
	include []string
	exclude []string

	mu      sync.RWMutex
	byName  map[string]Document // key: lowercased basename
	names   []string            // canonical names, sorted
	modTime time.Time           // root directory mtime at last scan
}

// New creates a registry rooted at dir and performs the initial scan.
// Include/exclude are doublestar glob patterns over the path relative to dir;
// an empty include list admits every .pdf file.
func New(dir string, include, exclude []string) (*Registry, error) {
	r := &Registry{dir: dir, include: include, exclude: exclude}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the registry's root directory.
func (r *Registry) Dir() string { return r.dir }

// Reload rescans the backing directory and replaces the index.
func (r *Registry) Reload() error {
	root, err := filepath.Abs(r.dir)
	if err != nil {
		return fmt.Errorf("registry: resolve root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("registry: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("registry: %s is not a directory", root)
	}

	byName := make(map[string]Document)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if !r.matches(relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}

		key := strings.ToLower(d.Name())
		if _, dup := byName[key]; dup {
			// First file wins when two paths share a basename.
			return nil
		}
		byName[key] = Document{Name: d.Name(), Path: p, Size: fi.Size()}
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry: walking %s: %w", root, err)
	}

	names := make([]string, 0, len(byName))
	for _, doc := range byName {
		names = append(names, doc.Name)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.byName = byName
	r.names = names
	r.modTime = info.ModTime()
	r.mu.Unlock()
	return nil
}

// ReloadIfChanged rescans only when the root directory's mtime moved since
// the last scan.
func (r *Registry) ReloadIfChanged() error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("registry: stat %s: %w", r.dir, err)
	}

	r.mu.RLock()
	changed := !info.ModTime().Equal(r.modTime)
	r.mu.RUnlock()

	if !changed {
		return nil
	}
	return r.Reload()
}

// matches applies include/exclude glob patterns to a relative path.
func (r *Registry) matches(relPath string) bool {
	normalized := filepath.ToSlash(relPath)

	if len(r.include) == 0 {
		if !strings.EqualFold(path.Ext(normalized), ".pdf") {
			return false
		}
	} else if !matchesAny(normalized, r.include) {
		return false
	}
	return !matchesAny(normalized, r.exclude)
}

func matchesAny(normalized string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
		// Also match against the basename so patterns like "*.pdf" work
		// for nested files.
		if ok, err := doublestar.Match(pat, path.Base(normalized)); err == nil && ok {
			return true
		}
	}
	return false
}

// normalize reduces a queried name to its lowercased basename. Incoming
// names may carry path separators from either platform; only the basename
// participates in membership checks.
func normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(path.Base(name))
}

// Canonical returns the on-disk basename for the given name, matching
// case-insensitively on the basename. A name without the .pdf extension
// matches too.
func (r *Registry) Canonical(name string) (string, bool) {
	key := normalize(name)
	if key == "" || key == "." || key == "/" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if doc, ok := r.byName[key]; ok {
		return doc.Name, true
	}
	if !strings.HasSuffix(key, ".pdf") {
		if doc, ok := r.byName[key+".pdf"]; ok {
			return doc.Name, true
		}
	}
	return "", false
}

// Contains reports whether name resolves to a known document.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Canonical(name)
	return ok
}

// Resolve returns the absolute path of the document the name refers to.
func (r *Registry) Resolve(name string) (string, bool) {
	key := normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if doc, ok := r.byName[key]; ok {
		return doc.Path, true
	}
	if !strings.HasSuffix(key, ".pdf") {
		if doc, ok := r.byName[key+".pdf"]; ok {
			return doc.Path, true
		}
	}
	return "", false
}

// Documents returns all known documents ordered by name.
func (r *Registry) Documents() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]Document, 0, len(r.names))
	for _, name := range r.names {
		docs = append(docs, r.byName[strings.ToLower(name)])
	}
	return docs
}

// Len returns the number of known documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
