package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/storage"
	"github.com/floracafe/cafesite/store"
	"github.com/floracafe/cafesite/util"
)

const (
	defaultRemoteCheckInterval = time.Hour
	remoteSyncTimeout          = 30 * time.Minute
)

// PhotoRegistry registers and removes gallery photos on the server.
type PhotoRegistry interface {
	RegisterPhoto(ctx context.Context, req models.RegisterPhotoRequest) (*models.RegisterPhotoResponse, error)
	GetPhotos(ctx context.Context, source string) ([]store.GalleryPhoto, error)
	DeletePhoto(ctx context.Context, id string) error
}

// RemoteManager mirrors the photos under a bucket prefix into the gallery.
// The objects themselves stay in the bucket and are served through /media.
type RemoteManager struct {
	objects  storage.ObjectStore
	prefix   string
	interval time.Duration

	photos PhotoRegistry
}

func NewRemoteManager(objects storage.ObjectStore, prefix string, interval time.Duration, photos PhotoRegistry) (*RemoteManager, error) {
	if objects == nil {
		return nil, errors.New("no object store provided for remote manager")
	}
	if photos == nil {
		return nil, errors.New("no photo registry provided for remote manager")
	}
	if interval <= 0 {
		interval = defaultRemoteCheckInterval
	}
	return &RemoteManager{
		objects:  objects,
		prefix:   prefix,
		interval: interval,
		photos:   photos,
	}, nil
}

func (r *RemoteManager) getRemoteFiles(ctx context.Context) (mapset.Set[string], error) {
	objects, err := r.objects.List(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("unable to list remote photos under %q: %w", r.prefix, err)
	}

	remoteFiles := mapset.NewSet[string]()
	for _, object := range objects {
		if strings.HasSuffix(object.Key, "/") || !util.IsSupportedImage(object.Key) {
			continue
		}
		remoteFiles.Add(object.Key)
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote files found", "prefix", r.prefix)
	}
	return remoteFiles, nil
}

// SyncFolder registers new remote photos and deregisters the ones removed
// from the bucket.
func (r *RemoteManager) SyncFolder(ctx context.Context) error {
	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return err
	}

	registered, err := r.photos.GetPhotos(ctx, store.SourceRemote)
	if err != nil {
		return fmt.Errorf("error getting registered remote photos: %w", err)
	}
	registeredKeys := mapset.NewSet[string]()
	idByKey := make(map[string]string, len(registered))
	for _, photo := range registered {
		registeredKeys.Add(photo.ObjectKey)
		idByKey[photo.ObjectKey] = photo.ID
	}

	toRegister := remoteFiles.Difference(registeredKeys).ToSlice()
	toDeregister := registeredKeys.Difference(remoteFiles).ToSlice()

	if len(toRegister) > 0 {
		slog.Info("registering remote photos", "count", len(toRegister), "keys", toRegister)
		for _, key := range toRegister {
			_, err := r.photos.RegisterPhoto(ctx, models.RegisterPhotoRequest{
				URL:       MediaPrefix + key,
				Alt:       util.AltFromName(key),
				Source:    store.SourceRemote,
				ObjectKey: key,
			})
			if err != nil {
				slog.Warn("error while registering remote photo", "key", key, "error", err)
			}
		}
	}
	if len(toDeregister) > 0 {
		slog.Info("deregistering photos not present remotely", "count", len(toDeregister), "keys", toDeregister)
		for _, key := range toDeregister {
			if err := r.photos.DeletePhoto(ctx, idByKey[key]); err != nil {
				slog.Warn("error while deregistering photo", "key", key, "error", err)
			}
		}
	}
	return nil
}

func (r *RemoteManager) sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, remoteSyncTimeout)
	defer cancel()
	if err := r.SyncFolder(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("error while syncing with remote", "error", err)
	}
}

// Run syncs immediately and then on every interval until ctx is cancelled.
func (r *RemoteManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sync(ctx)
		}
	}
}
