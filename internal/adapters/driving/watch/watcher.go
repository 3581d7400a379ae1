// Package watch ingests contracts dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the file types picked up from the inbox.
var DefaultExtensions = []string{".txt", ".html", ".htm"}

// ErrMissingVendor is returned when the watcher has no vendor to file contracts under.
var ErrMissingVendor = errors.New("watch: vendor is required")

// Event reports the outcome of ingesting one inbox file. Replaced holds the
// ids of earlier versions purged once the new document committed.
type Event struct {
	Path     string
	Result   *driving.IngestResult
	Replaced []string
	Err      error
}

// Documents finds and purges earlier versions of an inbox file.
// driving.DocumentService satisfies it.
type Documents interface {
	List(ctx context.Context, vendor string) ([]domain.Document, error)
	Purge(ctx context.Context, documentID string) error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before ingestion.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtensions replaces the accepted file extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			w.exts[strings.ToLower(e)] = true
		}
	}
}

// WithScanExisting ingests files already present when Run starts.
func WithScanExisting() Option {
	return func(w *Watcher) { w.scanExisting = true }
}

// WithEvents delivers an Event per ingested file. Sends never block; events
// are dropped when the channel is full.
func WithEvents(ch chan<- Event) Option {
	return func(w *Watcher) { w.events = ch }
}

// Watcher feeds new inbox files into the ingest service. A rewritten file
// replaces the document ingested from it before.
type Watcher struct {
	dir    string
	vendor string
	ingest driving.IngestService
	docs   Documents

	debounce     time.Duration
	exts         map[string]bool
	scanExisting bool
	events       chan<- Event

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   map[string]fileStamp
	ids    map[string]string // path -> live document id
	wg     sync.WaitGroup
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// New creates a watcher for dir that files every contract under vendor.
// With nil docs earlier versions of a rewritten file are kept.
func New(dir, vendor string, ingest driving.IngestService, docs Documents, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		vendor:   strings.TrimSpace(vendor),
		ingest:   ingest,
		docs:     docs,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
		done:     make(map[string]fileStamp),
		ids:      make(map[string]string),
	}
	WithExtensions(DefaultExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.vendor == "" {
		return ErrMissingVendor
	}
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("inbox %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox %s: not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.L().Info("watching inbox", zap.String("dir", w.dir), zap.String("vendor", w.vendor))

	if w.scanExisting {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.accept(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.L().Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", w.dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if w.accept(fsnotify.Event{Name: path, Op: fsnotify.Create}) {
			w.schedule(ctx, path)
		}
	}
	return nil
}

// accept reports whether an event names an inbox file worth ingesting.
func (w *Watcher) accept(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	if !w.exts[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	// Callbacks take w.mu first, so t is assigned before any of them reads it.
	var t *time.Timer
	w.wg.Add(1)
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	prev, seen := w.done[path]
	w.mu.Unlock()
	if seen && prev.size == stamp.size && prev.modTime.Equal(stamp.modTime) {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.emit(Event{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)})
		return
	}
	prior := w.priorVersions(ctx, path)

	res, err := w.ingest.Ingest(ctx, driving.IngestRequest{
		Vendor:   w.vendor,
		Filename: path,
		Data:     data,
	})
	if err != nil {
		logger.L().Warn("inbox ingest failed", zap.String("path", path), zap.Error(err))
		w.emit(Event{Path: path, Err: err})
		return
	}

	w.mu.Lock()
	w.done[path] = stamp
	w.ids[path] = res.Document.ID
	w.mu.Unlock()
	replaced := w.purge(ctx, prior, res.Document.ID)
	logger.L().Info("inbox ingested",
		zap.String("path", path),
		zap.String("document_id", res.Document.ID),
		zap.Int("clauses", res.Clauses),
		zap.Strings("replaced", replaced),
	)
	w.emit(Event{Path: path, Result: res, Replaced: replaced})
}

// priorVersions returns the ids of documents earlier ingested from path.
// Before the first ingest in this process they are looked up by vendor and
// file name, which covers a restart over a populated inbox.
func (w *Watcher) priorVersions(ctx context.Context, path string) []string {
	if w.docs == nil {
		return nil
	}
	w.mu.Lock()
	id, ok := w.ids[path]
	w.mu.Unlock()
	if ok {
		return []string{id}
	}

	docs, err := w.docs.List(ctx, w.vendor)
	if err != nil {
		logger.L().Warn("listing inbox documents failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	base := filepath.Base(path)
	var ids []string
	for _, d := range docs {
		if d.Filename == base {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// purge removes the earlier versions of a file once its new document exists.
func (w *Watcher) purge(ctx context.Context, prior []string, current string) []string {
	var purged []string
	for _, id := range prior {
		if id == current {
			continue
		}
		err := w.docs.Purge(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.L().Warn("purging replaced document failed", zap.String("document_id", id), zap.Error(err))
			continue
		}
		purged = append(purged, id)
	}
	return purged
}

func (w *Watcher) emit(e Event) {
	if w.events == nil {
		return
	}
	select {
	case w.events <- e:
	default:
	}
}
