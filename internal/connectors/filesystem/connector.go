// Package filesystem implements a content source over a local vault
// directory, with fsnotify-backed change watching.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
	"github.com/arkivo-labs/arkivo-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.ContentSource = (*Connector)(nil)

// indexableExtensions are the file types treated as vault documents.
var indexableExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Connector reads documents from a vault root directory. Paths are
// reported relative to the root with forward slashes, so the same vault
// produces the same document identities on every platform.
type Connector struct {
	rootPath string
	watcher  *fsnotify.Watcher
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("vault root %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root %s is not a directory", c.rootPath)
	}
	return nil
}

// List enumerates all indexable documents under the root, in walk
// order. Hidden files and directories are skipped.
func (c *Connector) List(ctx context.Context) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef

	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if strings.HasPrefix(d.Name(), ".") && path != c.rootPath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(c.rootPath, path)
		if err != nil {
			return err
		}
		refs = append(refs, domain.DocumentRef{Path: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking vault: %w", err)
	}
	return refs, nil
}

// Read returns the full text content of a document.
func (c *Connector) Read(ctx context.Context, ref domain.DocumentRef) (string, error) {
	data, err := os.ReadFile(c.absPath(ref.Path))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ref.Path, err)
	}
	return string(data), nil
}

// Stat returns the document's modification time and size.
func (c *Connector) Stat(ctx context.Context, ref domain.DocumentRef) (domain.FileStat, error) {
	info, err := os.Stat(c.absPath(ref.Path))
	if os.IsNotExist(err) {
		return domain.FileStat{}, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Path)
	}
	if err != nil {
		return domain.FileStat{}, fmt.Errorf("stat %s: %w", ref.Path, err)
	}
	return domain.FileStat{
		ModifiedTime: info.ModTime(),
		ByteSize:     info.Size(),
	}, nil
}

// Watch emits change events for indexable documents until ctx is
// cancelled. Subdirectories are watched recursively; directories
// created while watching are added on the fly. fsnotify cannot pair
// the two halves of a rename, so renames surface as delete plus create.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	c.watcher = watcher

	if err := c.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan domain.ChangeEvent)
	go c.forward(ctx, watcher, events)
	return events, nil
}

// watchTree registers the root and every non-hidden subdirectory.
func (c *Connector) watchTree(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != c.rootPath {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// forward translates fsnotify events into domain change events.
func (c *Connector) forward(ctx context.Context, watcher *fsnotify.Watcher, events chan<- domain.ChangeEvent) {
	defer close(events)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, watcher, event, events)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent maps one fsnotify event, adding watches for new
// directories and filtering out non-indexable paths.
func (c *Connector) handleEvent(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	event fsnotify.Event,
	events chan<- domain.ChangeEvent,
) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !indexableExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil {
		return
	}
	path := filepath.ToSlash(rel)

	var kind domain.ChangeKind
	switch {
	case event.Op.Has(fsnotify.Create):
		kind = domain.ChangeCreated
	case event.Op.Has(fsnotify.Write):
		kind = domain.ChangeModified
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		kind = domain.ChangeDeleted
	default:
		return
	}

	select {
	case events <- domain.ChangeEvent{Kind: kind, Path: path}:
	case <-ctx.Done():
	}
}

// Close releases the watcher if one is active.
func (c *Connector) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// absPath joins a vault-relative path onto the root.
func (c *Connector) absPath(rel string) string {
	return filepath.Join(c.rootPath, filepath.FromSlash(rel))
}
