// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/describe"
	"github.com/floracafe/cafesite/slideshow"
	"github.com/floracafe/cafesite/storage"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
)

//go:embed web/templates/*.html web/static
var webFiles embed.FS

// LocalPhotoPrefix is the URL prefix local gallery files are served under.
const LocalPhotoPrefix = "/local/"

// MediaPrefix is the URL prefix objects in the media store are served under.
const MediaPrefix = "/media/"

type Options struct {
	DB    *store.Database
	Media storage.ObjectStore
	// Describer is optional; without it menu descriptions are written by hand.
	Describer describe.Describer

	AdminEmail        string
	AdminPasswordHash string
	SessionTTL        time.Duration

	Location       *time.Location
	LocalDir       string
	UploadPrefix   string
	RatePerMinute  int
	RateBurst      int
	// TrustedProxies are the only peers whose X-Forwarded-For is used for
	// the client address. Nil trusts none.
	TrustedProxies []string
}

type WebServer struct {
	router    *gin.Engine
	db        *store.Database
	media     storage.ObjectStore
	describer describe.Describer

	adminEmail        string
	adminPasswordHash string
	sessionTTL        time.Duration

	loc          *time.Location
	localDir     string
	uploadPrefix string

	feed    *slideshow.Feed
	limiter *ipLimiter
	open    atomic.Bool
	now     func() time.Time

	// Updated is signalled whenever the gallery changes.
	Updated chan bool
}

func NewWebServer(opts Options) (*WebServer, error) {
	if opts.DB == nil {
		return nil, errors.New("database is required")
	}
	if opts.Media == nil {
		return nil, errors.New("media store is required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	ws := &WebServer{
		router:            gin.Default(),
		db:                opts.DB,
		media:             opts.Media,
		describer:         opts.Describer,
		adminEmail:        opts.AdminEmail,
		adminPasswordHash: opts.AdminPasswordHash,
		sessionTTL:        opts.SessionTTL,
		loc:               opts.Location,
		localDir:          opts.LocalDir,
		uploadPrefix:      opts.UploadPrefix,
		feed:              slideshow.NewFeed(nil),
		limiter:           newIPLimiter(opts.RatePerMinute, opts.RateBurst),
		now:               time.Now,
		Updated:           make(chan bool, 1),
	}
	ws.open.Store(true)

	if err := ws.router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	if err := ws.ReloadGallery(); err != nil {
		return nil, err
	}
	if err := ws.setupRoutes(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WebServer) setupRoutes() error {
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	templatesFS, err := fs.Sub(webFiles, "web/templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	ws.router.StaticFS("/static", http.FS(staticFS))
	if ws.localDir != "" {
		ws.router.Static(LocalPhotoPrefix, ws.localDir)
	}

	favicon := func(c *gin.Context) {
		data, err := fs.ReadFile(staticFS, "images/favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", data)
	}
	ws.router.GET("/favicon.ico", favicon)
	ws.router.GET("/favicon.svg", favicon)

	ws.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(templatesFS, "index.html")
		if err != nil {
			slog.Error("failed to read index.html", "error", err)
			c.String(http.StatusInternalServerError, "Failed to load index.html")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	// public
	ws.router.GET("/content", ws.handleGetContent)
	ws.router.GET("/menu", ws.handleListMenu)
	ws.router.GET("/ui/menu", ws.handleUIMenu)
	ws.router.GET("/gallery", ws.handleListPhotos)
	ws.router.GET("/gallery/state", ws.handleGalleryState)
	ws.router.GET("/gallery/stream", ws.handleGalleryStream)
	ws.router.GET("/ui/gallery", ws.handleUIGallery)
	ws.router.GET(MediaPrefix+"*key", ws.handleMedia)
	ws.router.GET("/status", ws.handleStatus)
	ws.router.POST("/reservations", ws.rateLimit(), ws.handleCreateReservation)
	ws.router.POST("/contact", ws.rateLimit(), ws.handleCreateContact)

	ws.router.POST("/admin/login", ws.rateLimit(), ws.handleLogin)
	ws.router.POST("/admin/logout", ws.handleLogout)

	admin := ws.router.Group("/admin", ws.requireAdmin())
	admin.GET("/dashboard", ws.handleDashboard)

	admin.POST("/menu", ws.handleCreateMenuItem)
	admin.PUT("/menu/:id", ws.handleUpdateMenuItem)
	admin.DELETE("/menu/:id", ws.handleDeleteMenuItem)
	admin.POST("/menu/describe", ws.handleDescribeMenuItem)

	admin.GET("/gallery", ws.handleAdminListPhotos)
	admin.GET("/ui/gallery", ws.handleUIAdminGallery)
	admin.POST("/gallery/upload", ws.handleUpload)
	admin.POST("/gallery/register", ws.handleRegisterPhoto)
	admin.PUT("/gallery/:id", ws.handleUpdatePhoto)
	admin.PUT("/gallery/:id/reorder", ws.handleReorderPhoto)
	admin.DELETE("/gallery/:id", ws.handleDeletePhoto)

	admin.GET("/reservations", ws.handleListReservations)
	admin.PUT("/reservations/:id/status", ws.handleUpdateReservationStatus)
	admin.DELETE("/reservations/:id", ws.handleDeleteReservation)

	admin.GET("/messages", ws.handleListMessages)
	admin.PUT("/messages/:id/read", ws.handleMarkMessageRead)
	admin.DELETE("/messages/:id", ws.handleDeleteMessage)

	admin.PUT("/content", ws.handleUpdateContent)
	admin.GET("/settings", ws.handleGetSettings)
	admin.PUT("/settings", ws.handleUpdateSettings)
	admin.GET("/schedule", ws.handleGetSchedule)
	admin.PUT("/schedule", ws.handleUpdateSchedule)
	return nil
}

// Handler exposes the router, mostly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Serve serves on ln until ctx is cancelled. Gallery updates reload the
// photo feed while the server runs.
func (ws *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	go ws.watchUpdates(ctx)

	srv := &http.Server{
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which closes open gallery streams
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown timed out, closing connections", "error", err)
		return srv.Close()
	}
	return nil
}

func (ws *WebServer) watchUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ws.Updated:
			slog.Info("found gallery updates, reloading photo feed")
			if err := ws.ReloadGallery(); err != nil {
				slog.Error("error while reloading gallery", "error", err)
			}
		}
	}
}

// NotifyUpdated signals a gallery change without blocking. Pending signals
// coalesce into one reload.
func (ws *WebServer) NotifyUpdated() {
	select {
	case ws.Updated <- true:
	default:
	}
}

// ReloadGallery publishes the stored gallery to the photo feed.
func (ws *WebServer) ReloadGallery() error {
	photos, err := ws.db.GetGalleryPhotos()
	if err != nil {
		return fmt.Errorf("failed to load gallery photos: %w", err)
	}
	revision := ws.feed.Publish(toSlideshowPhotos(photos))
	slog.Debug("published gallery", "photos", len(photos), "revision", revision)
	return nil
}

// SetOpen records whether the café is currently open.
func (ws *WebServer) SetOpen(open bool) {
	ws.open.Store(open)
}

func (ws *WebServer) Open() bool {
	return ws.open.Load()
}

// PruneRateLimits forgets idle clients and returns how many were dropped.
func (ws *WebServer) PruneRateLimits() int {
	return ws.limiter.Prune()
}

func toSlideshowPhotos(photos []store.GalleryPhoto) []slideshow.Photo {
	out := make([]slideshow.Photo, len(photos))
	for i, p := range photos {
		out[i] = slideshow.Photo{ID: p.ID, URL: p.URL, Alt: p.Alt}
	}
	return out
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// respondError writes msg as a text fragment for HTMX requests and as an
// ErrorResponse otherwise.
func respondError(c *gin.Context, status int, msg string) {
	if isHTMX(c) {
		c.String(status, "Error: "+msg)
		return
	}
	c.JSON(status, models.ErrorResponse{Error: msg})
}

// storeErrorStatus maps store sentinel errors to HTTP statuses.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func renderComponent(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render component", "error", err)
	}
}
