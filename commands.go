package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/floracafe/cafesite/api"
	"github.com/floracafe/cafesite/api/client"
	"github.com/floracafe/cafesite/config"
	"github.com/floracafe/cafesite/describe"
	"github.com/floracafe/cafesite/storage"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	managerEmail      = "managers@localhost"
	// renewed hourly by the schedule manager
	managerSessionTTL = 24 * time.Hour
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cafesite",
	Short: "Flora Café website and admin server",
	Long: `cafesite serves the café's public site (menu, rotating gallery,
reservations and contact forms) together with the admin API used to manage it.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server and background managers",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default site content and menu if missing",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for the admin password",
	Long: `Prints the bcrypt hash to put in admin.password_hash or
CAFE_ADMIN_PASSWORD_HASH. The password is read from stdin when not given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CAFE_CONFIG"), "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, seedCmd, hashPasswordCmd)
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*store.Database, error) {
	db, err := store.NewDatabase(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Seed(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newMediaStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.S3.Enabled {
		slog.Info("storing media in s3", "bucket", cfg.S3.Bucket, "profile", cfg.S3.Profile)
		return storage.NewS3Store(ctx, cfg.S3.Profile, cfg.S3.Bucket)
	}
	dir := filepath.Join(cfg.RootPath, "media")
	slog.Info("storing media on disk", "dir", dir)
	return storage.NewDirStore(dir)
}

func newDescriber(ctx context.Context, cfg *config.Config) describe.Describer {
	if cfg.Gemini.APIKey == "" {
		slog.Info("no gemini api key configured, description drafting disabled")
		return nil
	}
	d, err := describe.NewGeminiDescriber(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		slog.Warn("description drafting disabled", "error", err)
		return nil
	}
	return d
}

// managerBaseURL is the url the background managers use to reach the server
// listening on addr.
func managerBaseURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	settings, err := db.EnsureAppSettings(&store.AppSettings{
		RotationIntervalMillis: int(cfg.GalleryInterval() / time.Millisecond),
		FadeMillis:             int(cfg.GalleryFade() / time.Millisecond),
	})
	if err != nil {
		return err
	}
	slog.Info("gallery rotation", "interval_ms", settings.RotationIntervalMillis, "fade_ms", settings.FadeMillis)

	media, err := newMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" {
		slog.Warn("admin credentials not configured, admin login disabled")
	}

	ws, err := api.NewWebServer(api.Options{
		DB:                db,
		Media:             media,
		Describer:         newDescriber(ctx, cfg),
		AdminEmail:        cfg.Admin.Email,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		SessionTTL:        cfg.SessionTTL(),
		Location:          cfg.Location(),
		LocalDir:          cfg.LocalGalleryPath(),
		UploadPrefix:      cfg.S3.UploadPrefix,
		RatePerMinute:     cfg.RateLimit.PerMinute,
		RateBurst:         cfg.RateLimit.Burst,
		TrustedProxies:    cfg.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	session, err := db.CreateSession(managerEmail, managerSessionTTL)
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := db.DeleteSession(session.Token); err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Warn("failed to delete manager session", "error", err)
		}
	}()
	photos := client.NewPhotoClient(managerBaseURL(ln.Addr()), session.Token)

	localManager, err := api.NewLocalManager(cfg.LocalGalleryPath(), photos)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to initialize local manager: %w", err)
	}
	scheduleManager, err := api.NewScheduleManager(db, cfg.Location(), ws.SetOpen, ws.PruneRateLimits)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to initialize schedule manager: %w", err)
	}
	scheduleManager.KeepSessionAlive(session.Token, managerSessionTTL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ws.Serve(gctx, ln) })
	g.Go(func() error { return scheduleManager.Run(gctx) })
	g.Go(func() error {
		// the site keeps serving without the watcher
		if err := localManager.Run(gctx); err != nil {
			slog.Error("local manager stopped", "error", err)
		}
		return nil
	})

	if cfg.S3.Enabled {
		remoteManager, err := api.NewRemoteManager(media, cfg.S3.GalleryPrefix, cfg.SyncInterval(), photos)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to initialize remote manager: %w", err)
		}
		g.Go(func() error { return remoteManager.Run(gctx) })
	}

	return g.Wait()
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", cfg.DatabasePath())
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := api.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
