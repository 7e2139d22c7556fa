package schema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/metrics"
)

// Store holds the current schema document. Readers always see a complete
// document; reloads swap it atomically.
type Store struct {
	path   string
	logger *zap.Logger
	doc    atomic.Pointer[Document]
}

// NewStore creates a Store for path, starting from an empty document.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: filepath.Clean(path), logger: logger}
	s.doc.Store(Empty())
	return s
}

// NewStoreWithDocument creates a Store serving a fixed document.
func NewStoreWithDocument(doc *Document) *Store {
	s := &Store{logger: zap.NewNop()}
	s.doc.Store(doc)
	return s
}

// Current returns the document in use.
func (s *Store) Current() *Document {
	return s.doc.Load()
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the schema file. On failure the previous document
// stays in place and the error is returned.
func (s *Store) Load() error {
	doc, err := s.read()
	if err != nil {
		metrics.SchemaReloadsTotal.WithLabelValues("error").Inc()
		return err
	}

	for key, reason := range doc.Invalid() {
		s.logger.Warn("Skipping invalid API definition",
			zap.String("api", key),
			zap.String("reason", reason),
		)
	}

	s.doc.Store(doc)
	metrics.SchemaReloadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Schema loaded",
		zap.String("path", s.path),
		zap.String("version", doc.Version("?")),
		zap.Int("apis", len(doc.APIKeys())),
	)
	return nil
}

func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", s.path, err)
	}
	return Parse(data)
}

// Ping reports whether a usable document is loaded.
func (s *Store) Ping(_ context.Context) error {
	if len(s.Current().APIKeys()) == 0 {
		return fmt.Errorf("no api definitions loaded from %s", s.path)
	}
	return nil
}

// Watch reloads the document whenever its file is written, created or
// renamed into place. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				s.logger.Error("Schema reload failed, keeping previous version", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Schema watcher error", zap.Error(err))
		}
	}
}
