package dataset

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/where2work/internal/model"
)

const defaultDebounce = 200 * time.Millisecond

// Source holds the current data set for a file and swaps it atomically on reload.
type Source struct {
	path     string
	bands    model.BandOrder
	current  atomic.Pointer[Dataset]
	Debounce time.Duration
}

// NewSource loads path and returns a Source serving it. A load failure is
// returned as-is so startup can halt with the underlying reason.
func NewSource(path string, bands model.BandOrder) (*Source, error) {
	d, err := Load(path, bands)
	if err != nil {
		return nil, err
	}
	s := &Source{path: path, bands: bands, Debounce: defaultDebounce}
	s.current.Store(d)
	return s, nil
}

// NewStaticSource serves a fixed data set that is never reloaded.
func NewStaticSource(d *Dataset) *Source {
	s := &Source{path: d.Path, bands: d.Bands, Debounce: defaultDebounce}
	s.current.Store(d)
	return s
}

// Current returns the data set in use.
func (s *Source) Current() *Dataset {
	return s.current.Load()
}

// Reload re-reads the file. On failure the previous data set stays current.
func (s *Source) Reload() (*Dataset, error) {
	if s.path == "" {
		return s.Current(), nil
	}
	d, err := Load(s.path, s.bands)
	if err != nil {
		return s.Current(), err
	}
	prev := s.Current()
	if prev != nil && prev.Version == d.Version {
		return prev, nil
	}
	s.current.Store(d)
	zap.L().Info("dataset reloaded",
		zap.String("path", s.path),
		zap.String("version", d.Version),
		zap.Int("records", d.Len()),
	)
	return d, nil
}

// Watch reloads the data file whenever it changes on disk until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up too.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "dataset: create watcher")
	}
	defer w.Close() //nolint:errcheck

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return eris.Wrapf(err, "dataset: watch %s", filepath.Dir(target))
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				debounce.Reset(s.Debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("dataset: watcher error", zap.Error(err))
		case <-debounce.C:
			if _, err := s.Reload(); err != nil {
				zap.L().Error("dataset: reload failed, keeping previous data",
					zap.String("path", s.path),
					zap.Error(err),
				)
			}
		}
	}
}
