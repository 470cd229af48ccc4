package app

import (
	"log/slog"
	"os"

	"github.com/vpetrakov/learnhub/core/internal/config"
	http_course "github.com/vpetrakov/learnhub/core/internal/delivery/http/course"
	http_init "github.com/vpetrakov/learnhub/core/internal/delivery/http/init"
	http_auth_middleware "github.com/vpetrakov/learnhub/core/internal/delivery/http/middleware/auth"
	http_user "github.com/vpetrakov/learnhub/core/internal/delivery/http/user"
	infra_mailer "github.com/vpetrakov/learnhub/core/internal/infra/mailer"
	infra_pg_init "github.com/vpetrakov/learnhub/core/internal/infra/postgres/init"
	infra_postgres_course "github.com/vpetrakov/learnhub/core/internal/infra/postgres/course"
	infra_postgres_user "github.com/vpetrakov/learnhub/core/internal/infra/postgres/user"
	infra_redis_cache "github.com/vpetrakov/learnhub/core/internal/infra/redis/cache"
	infra_redis_init "github.com/vpetrakov/learnhub/core/internal/infra/redis/init"
	infra_redis_session "github.com/vpetrakov/learnhub/core/internal/infra/redis/session"
	infra_s3 "github.com/vpetrakov/learnhub/core/internal/infra/s3"
	"github.com/vpetrakov/learnhub/core/internal/infra/s3mock"
	service_token "github.com/vpetrakov/learnhub/core/internal/service/token"
	usecase_course "github.com/vpetrakov/learnhub/core/internal/usecase/course"
	usecase_user "github.com/vpetrakov/learnhub/core/internal/usecase/user"
)

func Go(cfg *config.Config) {
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)

	// Without AWS credentials uploads go to an in-memory stub so the
	// service stays runnable on a laptop.
	var assetStorage usecase_user.AvatarStorage
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		assetStorage = s3mock.New()
	} else {
		s3conn := infra_s3.MustEstablishConn()
		storage, err := infra_s3.New(cfg.S3.Bucket, s3conn, cfg.S3.Prefix)
		if err != nil {
			panic(err)
		}
		assetStorage = storage
	}

	var mailer usecase_user.Mailer
	if cfg.SMTP.Host == "" {
		mailer = infra_mailer.NewLogMailer()
	} else {
		mailer = infra_mailer.New(cfg.SMTP)
	}

	tokens := service_token.New(service_token.Config{
		AccessSecret:     []byte(cfg.Auth.AccessSecret),
		RefreshSecret:    []byte(cfg.Auth.RefreshSecret),
		ActivationSecret: []byte(cfg.Auth.ActivationSecret),
		AccessTTL:        cfg.Auth.AccessTTL,
		RefreshTTL:       cfg.Auth.RefreshTTL,
	})

	sessions := infra_redis_session.New(redisConn, "session")
	catalogCache := infra_redis_cache.New(redisConn, "course")

	userRepository := infra_postgres_user.New(pgConn)
	courseRepository := infra_postgres_course.New(pgConn)

	userUC := usecase_user.New(userRepository, sessions, tokens, mailer, assetStorage,
		usecase_user.WithLogger(logger))
	courseUC := usecase_course.New(courseRepository, catalogCache, assetStorage,
		usecase_course.WithLogger(logger))

	authMiddleware := http_auth_middleware.New(tokens, sessions,
		http_auth_middleware.WithLogger(logger))

	controllerPool := http_init.NewControllerPool(cfg.Production())
	controllerPool.Add(http_user.New(
		userUC,
		authMiddleware,
		!cfg.Development(),
		!cfg.Production(),
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
		http_user.WithLogger(logger),
	))
	controllerPool.Add(http_course.New(courseUC, authMiddleware,
		http_course.WithLogger(logger)))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
