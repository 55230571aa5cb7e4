package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
	"github.com/floracafe/cafesite/util"
	"github.com/fsnotify/fsnotify"
)

const (
	localCheckInterval = 24 * time.Hour
	localDebounce      = 500 * time.Millisecond
)

// LocalManager registers photos dropped into a directory on disk and
// deregisters them when they are removed.
type LocalManager struct {
	path   string
	photos PhotoRegistry

	rescan   time.Duration
	debounce time.Duration
}

func NewLocalManager(path string, photos PhotoRegistry) (*LocalManager, error) {
	if photos == nil {
		return nil, errors.New("no photo registry provided for local manager")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create local gallery directory %s: %w", path, err)
	}
	return &LocalManager{
		path:     path,
		photos:   photos,
		rescan:   localCheckInterval,
		debounce: localDebounce,
	}, nil
}

func (l *LocalManager) getCurrentFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(l.path)
	if err != nil {
		return nil, err
	}

	currentFiles := mapset.NewSet[string]()
	for _, dir := range dirs {
		if dir.IsDir() || !util.IsSupportedImage(dir.Name()) {
			continue
		}
		currentFiles.Add(dir.Name())
	}
	return currentFiles, nil
}

// scanAndRegister brings the registered local photos in line with the files
// in the directory.
func (l *LocalManager) scanAndRegister(ctx context.Context) error {
	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		return fmt.Errorf("error reading local directory %s: %w", l.path, err)
	}

	registered, err := l.photos.GetPhotos(ctx, store.SourceLocal)
	if err != nil {
		return fmt.Errorf("error getting registered local photos: %w", err)
	}
	registeredNames := mapset.NewSet[string]()
	idByName := make(map[string]string, len(registered))
	for _, photo := range registered {
		registeredNames.Add(photo.ObjectKey)
		idByName[photo.ObjectKey] = photo.ID
	}

	for _, name := range currentFiles.Difference(registeredNames).ToSlice() {
		_, err := l.photos.RegisterPhoto(ctx, models.RegisterPhotoRequest{
			URL:       LocalPhotoPrefix + url.PathEscape(name),
			Alt:       util.AltFromName(name),
			Source:    store.SourceLocal,
			ObjectKey: name,
		})
		if err != nil {
			slog.Warn("error while registering local photo", "name", name, "error", err)
		}
	}

	toDeregister := registeredNames.Difference(currentFiles).ToSlice()
	if len(toDeregister) > 0 {
		slog.Info("deregistering local photos not present on disk", "count", len(toDeregister), "names", toDeregister)
		for _, name := range toDeregister {
			if err := l.photos.DeletePhoto(ctx, idByName[name]); err != nil {
				slog.Warn("error while deregistering photo", "name", name, "error", err)
			}
		}
	}
	return nil
}

func (l *LocalManager) scan(ctx context.Context) {
	if err := l.scanAndRegister(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("error while scanning local photos", "path", l.path, "error", err)
	}
}

// Run watches the directory until ctx is cancelled. Bursts of file events
// are debounced into one scan, and a periodic rescan catches missed events.
func (l *LocalManager) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.path); err != nil {
		return fmt.Errorf("unable to watch %s: %w", l.path, err)
	}

	l.scan(ctx)

	ticker := time.NewTicker(l.rescan)
	defer ticker.Stop()

	pending := time.NewTimer(l.debounce)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if !util.IsSupportedImage(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				slog.Debug("local photo change detected", "name", filepath.Base(ev.Name), "op", ev.Op.String())
				pending.Reset(l.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			// missed events are recovered by scanning now
			slog.Warn("file watcher error", "path", l.path, "error", err)
			pending.Reset(l.debounce)
		case <-pending.C:
			l.scan(ctx)
		case <-ticker.C:
			l.scan(ctx)
		}
	}
}
