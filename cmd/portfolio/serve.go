package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Saikiran-Avusula/portfolio/internal/asset"
	"github.com/Saikiran-Avusula/portfolio/internal/auth"
	"github.com/Saikiran-Avusula/portfolio/internal/blob"
	"github.com/Saikiran-Avusula/portfolio/internal/chat"
	"github.com/Saikiran-Avusula/portfolio/internal/config"
	"github.com/Saikiran-Avusula/portfolio/internal/contact"
	"github.com/Saikiran-Avusula/portfolio/internal/content"
	"github.com/Saikiran-Avusula/portfolio/internal/database"
	"github.com/Saikiran-Avusula/portfolio/internal/logger"
	"github.com/Saikiran-Avusula/portfolio/internal/server"
	"github.com/Saikiran-Avusula/portfolio/internal/visits"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	cfg.App.Version = version

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.App.DataDir)
	if err != nil {
		log.Error("main", "failed to open database", map[string]interface{}{"error": err})
		return err
	}
	defer db.Close()

	store, err := newBlobStore(ctx, cfg.Blob, db)
	if err != nil {
		log.Error("main", "failed to create blob store", map[string]interface{}{"error": err})
		return err
	}
	log.Info("main", "blob store ready", map[string]interface{}{"backend": cfg.Blob.Backend})

	resume := asset.NewService(asset.Resume, store, log, "/assets")
	image := asset.NewService(asset.ProfileImage, store, log, "/assets")
	for _, svc := range []*asset.Service{resume, image} {
		removed, err := svc.Sweep(ctx)
		if err != nil {
			log.Warn("main", "orphan sweep failed", map[string]interface{}{"kind": svc.Kind().Slot, "error": err.Error()})
			continue
		}
		if removed > 0 {
			log.Info("main", "removed orphaned asset content", map[string]interface{}{"kind": svc.Kind().Slot, "removed": removed})
		}
	}

	gate, closeRevocations, err := newGate(ctx, cfg, log)
	if err != nil {
		log.Error("main", "failed to configure admin login", map[string]interface{}{"error": err})
		return err
	}
	defer closeRevocations()

	portfolio, err := content.Load()
	if err != nil {
		log.Error("main", "failed to load portfolio content", map[string]interface{}{"error": err})
		return err
	}
	persona, err := chat.Persona(portfolio)
	if err != nil {
		return err
	}
	relay, err := chat.NewGeminiRelay(ctx, cfg.Chat.APIKey, cfg.Chat.Model, persona, log)
	if err != nil {
		log.Error("main", "failed to create chat relay", map[string]interface{}{"error": err})
		return err
	}

	if cfg.SMTP.User == "" || cfg.SMTP.Password == "" {
		log.Warn("main", "SMTP credentials not configured, contact form submissions will fail", nil)
	}
	mailer := contact.NewMailer(contact.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		To:       cfg.SMTP.ToEmail,
	}, log)

	tracker, err := visits.NewTracker(db, "", log)
	if err != nil {
		return err
	}
	go func() {
		if _, err := tracker.Cleanup(ctx); err != nil {
			log.Error("main", "visit cleanup failed", map[string]interface{}{"error": err})
		}
	}()

	srv, err := server.New(server.Options{
		Portfolio:    portfolio,
		Resume:       resume,
		Image:        image,
		Gate:         gate,
		Chat:         relay,
		Mailer:       mailer,
		Visits:       tracker,
		Log:          log,
		ChatRate:     rate.Limit(cfg.Chat.RatePerSec),
		ChatBurst:    cfg.Chat.Burst,
		SecureCookie: cfg.Auth.SecureCookie,
		Version:      version,
	})
	if err != nil {
		log.Error("main", "failed to build server", map[string]interface{}{"error": err})
		return err
	}

	log.Info("main", "starting portfolio", map[string]interface{}{
		"version": version,
		"env":     cfg.App.Environment,
		"port":    cfg.App.Port,
	})
	return srv.Run(ctx, ":"+cfg.App.Port)
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig, db *sql.DB) (blob.Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return blob.NewSQLiteStore(db), nil
	case "s3", "r2":
		return blob.NewS3Store(ctx, blob.S3Config{
			AccountID:     cfg.AccountID,
			Endpoint:      cfg.Endpoint,
			Region:        cfg.Region,
			Bucket:        cfg.Bucket,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.Backend)
	}
}

// newGate resolves the admin credential and picks where logged-out sessions
// are remembered: redis when REDIS_URL is set and reachable, memory otherwise.
func newGate(ctx context.Context, cfg *config.Config, log logger.ILogger) (*auth.Gate, func(), error) {
	hash, usedDefault, err := auth.ResolvePasswordHash(cfg.Auth.AdminPasswordHash, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, nil, err
	}
	if usedDefault {
		if cfg.IsProduction() {
			return nil, nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production")
		}
		log.Warn("main", "using default admin password, set ADMIN_PASSWORD_HASH", nil)
	}

	var revocations auth.Revocations = auth.NewMemoryRevocations()
	closeFn := func() {}
	if cfg.Redis.URL != "" {
		rdb := auth.NewRedisClient(cfg.Redis.URL)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("main", "redis unreachable, keeping session revocations in memory", map[string]interface{}{"error": err.Error()})
			rdb.Close()
		} else {
			revocations = auth.NewRedisRevocations(rdb)
			closeFn = func() { rdb.Close() }
		}
	}

	gate, err := auth.NewGate(auth.Config{
		Identifier:   cfg.Auth.AdminEmail,
		PasswordHash: hash,
		Secret:       []byte(cfg.Auth.JWTSecret),
		TTL:          cfg.Auth.SessionTTL,
	}, revocations, log)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return gate, closeFn, nil
}
