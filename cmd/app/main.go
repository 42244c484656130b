package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/commentservice"
	"github.com/sushihentaime/devlog/internal/common"
	"github.com/sushihentaime/devlog/internal/likeservice"
	"github.com/sushihentaime/devlog/internal/mailservice"
	"github.com/sushihentaime/devlog/internal/mediaservice"
	"github.com/sushihentaime/devlog/internal/postservice"
	"github.com/sushihentaime/devlog/internal/userservice"
)

type application struct {
	config         *Config
	logger         zerolog.Logger
	db             *sql.DB
	broker         *common.MessageBroker
	userService    *userservice.UserService
	postService    *postservice.PostService
	commentService *commentservice.CommentService
	likeService    *likeservice.LikeService
	mediaService   *mediaservice.MediaService
	mailService    *mailservice.MailService

	trustedProxies []netip.Prefix

	wg   sync.WaitGroup
	done chan struct{}
}

func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("version", cfg.Version).Logger()
}

func newCache(cfg *Config) (common.Cache, error) {
	switch cfg.CacheDriver {
	case "redis":
		return common.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "", "memory":
		return common.NewMemoryCache(5*time.Minute, 10*time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
}

func main() {
	cfg, err := loadConfig(".env")
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)

	proxies, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse trusted proxies")
	}

	dsn := common.DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := common.NewDB(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer common.CloseDB(db)

	if cfg.MigrationsPath != "" {
		if _, err := common.Migrate(cfg.MigrationsPath, dsn); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		logger.Info().Str("source", cfg.MigrationsPath).Msg("migrations applied")
	}

	cache, err := newCache(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up the cache")
	}

	uri := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(uri)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the message broker")
	}
	defer broker.Close()

	if err := common.SetupCommentExchange(broker); err != nil {
		logger.Fatal().Err(err).Msg("failed to set up the comment exchange")
	}

	store, err := mediaservice.NewS3Store(context.Background(), mediaservice.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up the blob store")
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		broker: broker,
		userService: userservice.NewUserService(db, cache, userservice.Config{
			AdminUser:     cfg.AdminUser,
			AdminPassword: cfg.AdminPassword,
			AdminEmail:    cfg.AdminEmail,
			JWTSecret:     cfg.JWTSecret,
			SessionTTL:    cfg.SessionTTL,
			OAuth: userservice.OAuthConfig{
				RedirectBaseURL:    cfg.OAuthRedirectBaseURL,
				GitHubClientID:     cfg.OAuthGitHubClientID,
				GitHubClientSecret: cfg.OAuthGitHubClientSecret,
				GoogleClientID:     cfg.OAuthGoogleClientID,
				GoogleClientSecret: cfg.OAuthGoogleClientSecret,
			},
		}, logger),
		postService:    postservice.NewPostService(db, cache, logger),
		commentService: commentservice.NewCommentService(db, broker, cfg.CommentBcryptCost, logger),
		likeService:    likeservice.NewLikeService(db, logger),
		mediaService:   mediaservice.NewMediaService(store, cfg.S3PublicBaseURL, logger),
		mailService: mailservice.NewMailService(broker, mailservice.Config{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUser,
			Password: cfg.MailPassword,
			Sender:   cfg.MailSender,
		}, cfg.AdminEmail, logger),
		trustedProxies: proxies,
		done:           make(chan struct{}),
	}

	if err := app.mailService.SendCommentNotifications(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start the comment notification consumer")
	}
	defer app.mailService.Close()

	app.background(func() { app.purgeExpiredSessions(time.Hour) })

	if err := app.serve(cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// purgeExpiredSessions deletes expired sessions every interval until shutdown.
func (app *application) purgeExpiredSessions(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := app.userService.PurgeExpiredSessions(ctx)
			cancel()
			if err != nil {
				app.logger.Error().Err(err).Msg("could not purge expired sessions")
				continue
			}
			app.logger.Debug().Int64("deleted", n).Msg("expired sessions purged")
		case <-app.done:
			return
		}
	}
}
