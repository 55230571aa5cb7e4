package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/storage"
	"github.com/floracafe/cafesite/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry keeps registered photos in memory.
type fakeRegistry struct {
	mu     sync.Mutex
	photos []store.GalleryPhoto
	fail   map[string]bool
}

func (f *fakeRegistry) RegisterPhoto(_ context.Context, req models.RegisterPhotoRequest) (*models.RegisterPhotoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[req.ObjectKey] {
		return nil, errors.New("register failed")
	}
	for _, p := range f.photos {
		if p.URL == req.URL {
			return &models.RegisterPhotoResponse{Photo: p}, nil
		}
	}
	p := store.GalleryPhoto{ID: uuid.NewString(), URL: req.URL, Alt: req.Alt, Source: req.Source, ObjectKey: req.ObjectKey}
	f.photos = append(f.photos, p)
	return &models.RegisterPhotoResponse{Photo: p, Created: true}, nil
}

func (f *fakeRegistry) GetPhotos(_ context.Context, source string) ([]store.GalleryPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.GalleryPhoto
	for _, p := range f.photos {
		if source == "" || p.Source == source {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRegistry) DeletePhoto(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = slices.DeleteFunc(f.photos, func(p store.GalleryPhoto) bool { return p.ID == id })
	return nil
}

func (f *fakeRegistry) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, 0, len(f.photos))
	for _, p := range f.photos {
		urls = append(urls, p.URL)
	}
	slices.Sort(urls)
	return urls
}

func TestRemoteManagerSyncFolder(t *testing.T) {
	ctx := context.Background()
	objects, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"gallery/varanda.jpg", "gallery/bolo_de_rolo.png", "gallery/notes.txt", "uploads/other.jpg"} {
		require.NoError(t, objects.Put(ctx, key, strings.NewReader(key), ""))
	}

	registry := &fakeRegistry{
		photos: []store.GalleryPhoto{
			{ID: "gone", URL: "/media/gallery/removed.jpg", Source: store.SourceRemote, ObjectKey: "gallery/removed.jpg"},
			{ID: "upload", URL: "/media/uploads/other.jpg", Source: store.SourceUpload, ObjectKey: "uploads/other.jpg"},
		},
	}
	rm, err := NewRemoteManager(objects, "gallery/", time.Minute, registry)
	require.NoError(t, err)

	require.NoError(t, rm.SyncFolder(ctx))
	assert.Equal(t, []string{
		"/media/gallery/bolo_de_rolo.png",
		"/media/gallery/varanda.jpg",
		"/media/uploads/other.jpg",
	}, registry.urls())

	remote, err := registry.GetPhotos(ctx, store.SourceRemote)
	require.NoError(t, err)
	alts := []string{remote[0].Alt, remote[1].Alt}
	assert.ElementsMatch(t, []string{"varanda", "bolo de rolo"}, alts)

	// a second sync is a no-op
	require.NoError(t, rm.SyncFolder(ctx))
	assert.Len(t, registry.urls(), 3)
}

func TestNewRemoteManagerValidation(t *testing.T) {
	objects, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewRemoteManager(nil, "gallery/", 0, &fakeRegistry{})
	assert.Error(t, err)
	_, err = NewRemoteManager(objects, "gallery/", 0, nil)
	assert.Error(t, err)

	rm, err := NewRemoteManager(objects, "gallery/", 0, &fakeRegistry{})
	require.NoError(t, err)
	assert.Equal(t, defaultRemoteCheckInterval, rm.interval)
}

func TestLocalManagerScanAndRegister(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "gallery")
	registry := &fakeRegistry{fail: map[string]bool{"broken.jpg": true}}
	lm, err := NewLocalManager(dir, registry)
	require.NoError(t, err)

	for _, name := range []string{"café da manhã.jpg", "broken.jpg", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	require.NoError(t, lm.scanAndRegister(ctx))
	assert.Equal(t, []string{"/local/caf%C3%A9%20da%20manh%C3%A3.jpg"}, registry.urls())

	require.NoError(t, os.Remove(filepath.Join(dir, "café da manhã.jpg")))
	require.NoError(t, lm.scanAndRegister(ctx))
	assert.Empty(t, registry.urls())
}

func TestLocalManagerRunPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	registry := &fakeRegistry{}
	lm, err := NewLocalManager(dir, registry)
	require.NoError(t, err)
	lm.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lm.Run(ctx) }()

	// the first scan runs before events are handled, so keep writing until
	// the watcher reports one
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "jardim.webp"), []byte("x"), 0o644)
		return slices.Contains(registry.urls(), "/local/jardim.webp")
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "jardim.webp")))
	require.Eventually(t, func() bool {
		return len(registry.urls()) == 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("local manager did not stop")
	}
}
