package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/api/web/templates"
	"github.com/floracafe/cafesite/slideshow"
	"github.com/floracafe/cafesite/storage"
	"github.com/floracafe/cafesite/store"
	"github.com/floracafe/cafesite/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "20")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid page parameter"})
		return
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit parameter"})
		return
	}

	total, err := ws.db.GetGalleryPhotoCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	photos, err := ws.db.GetGalleryPhotosPage(limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if photos == nil {
		photos = []store.GalleryPhoto{}
	}

	c.JSON(http.StatusOK, models.GalleryListResponse{
		Photos: photos,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

func (ws *WebServer) handleAdminListPhotos(c *gin.Context) {
	source := c.Query("source")

	var photos []store.GalleryPhoto
	var err error
	if source == "" {
		photos, err = ws.db.GetGalleryPhotos()
	} else {
		photos, err = ws.db.GetGalleryPhotosBySource(source)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if photos == nil {
		photos = []store.GalleryPhoto{}
	}
	c.JSON(http.StatusOK, models.GalleryListResponse{
		Photos: photos,
		Total:  len(photos),
		Page:   1,
		Limit:  len(photos),
	})
}

func (ws *WebServer) galleryState() (models.GalleryStateResponse, error) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		return models.GalleryStateResponse{}, err
	}
	snap := ws.feed.Snapshot()
	return models.GalleryStateResponse{
		State: slideshow.State{
			Displayed:  slideshow.InitialWindow(snap.Photos),
			FadingSlot: slideshow.NoSlot,
		},
		RotationEnabled: len(snap.Photos) > slideshow.WindowSize,
		IntervalMillis:  settings.RotationIntervalMillis,
		FadeMillis:      settings.FadeMillis,
	}, nil
}

func (ws *WebServer) handleGalleryState(c *gin.Context) {
	state, err := ws.galleryState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get gallery state: %v", err)})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (ws *WebServer) handleUIGallery(c *gin.Context) {
	state, err := ws.galleryState()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error fetching gallery: %v", err))
		return
	}
	renderComponent(c, http.StatusOK, templates.GalleryGrid(state.State, state.FadeMillis))
}

func (ws *WebServer) handleUIAdminGallery(c *gin.Context) {
	photos, err := ws.db.GetGalleryPhotos()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error fetching photos: %v", err))
		return
	}
	renderComponent(c, http.StatusOK, templates.AdminGalleryList(photos))
}

// handleGalleryStream mounts a rotator for the lifetime of the request and
// streams its events. Disconnecting cancels the request context, which
// closes the rotator and drops any swap still waiting on its fade.
func (ws *WebServer) handleGalleryStream(c *gin.Context) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	events := make(chan slideshow.Event, 4)
	rotator := slideshow.New(ws.feed,
		slideshow.WithInterval(settings.RotationInterval()),
		slideshow.WithFade(settings.Fade()),
		slideshow.WithObserver(func(e slideshow.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rotator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("gallery rotator stopped", "error", err)
		}
	}()
	defer wg.Wait()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-events:
			c.SSEvent(string(e.Kind), e)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (ws *WebServer) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file provided")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File is larger than %d MB", maxUploadBytes>>20))
		return
	}

	ext := filepath.Ext(file.Filename)
	if !util.SupportedExt.Contains(ext) {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Unsupported file extension: %s. Supported: .jpeg, .jpg, .png, .webp", ext))
		return
	}

	alt := strings.TrimSpace(c.PostForm("alt"))
	if alt == "" {
		alt = util.AltFromName(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Failed to read file: %v", err))
		return
	}
	defer src.Close()

	key := ws.uploadPrefix + uuid.NewString() + strings.ToLower(ext)
	if err := ws.media.Put(c.Request.Context(), key, src, util.ImageContentType(file.Filename)); err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to store file: %v", err))
		return
	}

	photo := &store.GalleryPhoto{
		URL:       MediaPrefix + key,
		Alt:       alt,
		Source:    store.SourceUpload,
		ObjectKey: key,
	}
	if err := ws.db.InsertGalleryPhoto(photo); err != nil {
		// clean up the object if the db insert fails
		if derr := ws.media.Delete(c.Request.Context(), key); derr != nil {
			slog.Warn("failed to remove orphaned upload", "key", key, "error", derr)
		}
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to insert photo into database: %v", err))
		return
	}

	ws.NotifyUpdated()

	if isHTMX(c) {
		photos, err := ws.db.GetGalleryPhotos()
		if err != nil {
			c.String(http.StatusInternalServerError, "Error: Failed to refresh photos")
			return
		}
		renderComponent(c, http.StatusOK, templates.AdminGalleryList(photos))
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Photo:   *photo,
		Message: "Photo uploaded successfully",
	})
}

func (ws *WebServer) handleRegisterPhoto(c *gin.Context) {
	var req models.RegisterPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.URL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "url is required"})
		return
	}
	switch req.Source {
	case store.SourceRemote, store.SourceLocal, store.SourceUpload:
	case "":
		req.Source = store.SourceUpload
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("unknown source %q", req.Source)})
		return
	}
	if !util.IsSupportedImage(req.URL) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s. Supported: .jpeg, .jpg, .png, .webp", filepath.Ext(req.URL)),
		})
		return
	}

	existing, err := ws.db.GetGalleryPhotoByURL(req.URL)
	if err == nil {
		c.JSON(http.StatusOK, models.RegisterPhotoResponse{
			Photo:   *existing,
			Created: false,
			Message: fmt.Sprintf("Photo '%s' already exists in database", req.URL),
		})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	alt := req.Alt
	if alt == "" {
		alt = util.AltFromName(req.URL)
	}
	photo := &store.GalleryPhoto{
		URL:       req.URL,
		Alt:       alt,
		Source:    req.Source,
		ObjectKey: req.ObjectKey,
	}
	if err := ws.db.InsertGalleryPhoto(photo); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to insert photo into database: %v", err)})
		return
	}

	ws.NotifyUpdated()
	c.JSON(http.StatusCreated, models.RegisterPhotoResponse{
		Photo:   *photo,
		Created: true,
		Message: "Photo registered successfully",
	})
}

func (ws *WebServer) handleUpdatePhoto(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if err := ws.db.UpdateGalleryPhotoAlt(id, strings.TrimSpace(req.Alt)); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to update photo: %v", err)})
		return
	}

	photo, err := ws.db.GetGalleryPhoto(id)
	if err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to retrieve updated photo: %v", err)})
		return
	}
	ws.NotifyUpdated()
	c.JSON(http.StatusOK, photo)
}

func (ws *WebServer) handleDeletePhoto(c *gin.Context) {
	id := c.Param("id")

	photo, err := ws.db.GetGalleryPhoto(id)
	if err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Photo '%s' not found", id))
		return
	}

	// only uploads are owned by the site; remote and local files belong to their source
	if photo.Source == store.SourceUpload && photo.ObjectKey != "" {
		err := ws.media.Delete(c.Request.Context(), photo.ObjectKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to delete file: %v", err))
			return
		}
	}

	if err := ws.db.DeleteGalleryPhoto(id); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to delete photo from database: %v", err))
		return
	}

	ws.NotifyUpdated()
	if isHTMX(c) {
		c.Header("HX-Trigger", "refreshPhotos")
		c.String(http.StatusOK, "")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Photo '%s' deleted successfully", id)})
}

func (ws *WebServer) handleReorderPhoto(c *gin.Context) {
	id := c.Param("id")

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if req.NewOrder < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new_order must be non-negative"})
		return
	}

	next, err := ws.db.NextGalleryOrder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if req.NewOrder >= next {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: fmt.Sprintf("new_order %d exceeds maximum order %d", req.NewOrder, next-1),
		})
		return
	}

	if err := ws.db.UpdateGalleryPhotoOrder(id, req.NewOrder); err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to update photo order: %v", err)})
		return
	}

	photo, err := ws.db.GetGalleryPhoto(id)
	if err != nil {
		c.JSON(storeErrorStatus(err), models.ErrorResponse{Error: fmt.Sprintf("Failed to retrieve updated photo: %v", err)})
		return
	}
	ws.NotifyUpdated()
	c.JSON(http.StatusOK, photo)
}

func (ws *WebServer) handleMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "object key is required"})
		return
	}

	body, contentType, err := ws.media.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Media not found: %s", key)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to read media: %v", err)})
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = util.ImageContentType(key)
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
