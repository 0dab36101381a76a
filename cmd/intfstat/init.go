package main

import (
	"context"
	"database/sql"
	"os"
	"os/user"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/adapters/archive/postgres"
	filecache "github.com/vshulcz/Intfstat/internal/adapters/cache/file"
	oplogfile "github.com/vshulcz/Intfstat/internal/adapters/oplog/file"
	"github.com/vshulcz/Intfstat/internal/adapters/source/countersdb"
	"github.com/vshulcz/Intfstat/internal/adapters/source/netdev"
	"github.com/vshulcz/Intfstat/internal/config"
	"github.com/vshulcz/Intfstat/internal/misc"
	"github.com/vshulcz/Intfstat/internal/ports"
	"github.com/vshulcz/Intfstat/internal/services/oplog"
	"github.com/vshulcz/Intfstat/internal/services/snapshot"
	"github.com/vshulcz/Intfstat/internal/services/stat"
	"github.com/vshulcz/Intfstat/pkg/observer"
)

func buildService(cfg config.Config, logger *zap.Logger) *stat.Service {
	var src ports.CounterSource
	if len(cfg.Endpoints) > 0 {
		src = countersdb.New(countersdb.Options{
			Endpoints:   cfg.Endpoints,
			DB:          cfg.RedisDB,
			DialTimeout: cfg.DialTimeout,
		}, logger)
	} else {
		src = netdev.New(logger)
	}

	builder := snapshot.New(src, logger)
	cache := filecache.New(cfg.CacheDir)

	opts := []stat.Option{
		stat.WithOps(buildOps(cfg, logger)),
	}
	if arch := buildArchive(cfg, logger); arch != nil {
		opts = append(opts, stat.WithArchive(arch))
	}

	return stat.New(builder, cache, identity(), logger, opts...)
}

// buildArchive opens the optional Postgres archive. Failure to reach
// the database degrades to cache-only operation, it never blocks the
// command.
func buildArchive(cfg config.Config, logger *zap.Logger) ports.SnapshotArchive {
	if cfg.DSN == "" {
		return nil
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err == nil {
		op := func() error {
			if err := db.Ping(); err != nil {
				return err
			}
			return postgres.Migrate(db)
		}
		if err = misc.Retry(context.Background(), misc.DefaultBackoff, postgres.IsRetryable, op); err == nil {
			logger.Info("archive db connected & migrated")
			return postgres.New(db)
		}
	}
	logger.Warn("archive init failed, continuing without it", zap.Error(err))
	return nil
}

func buildOps(cfg config.Config, logger *zap.Logger) *observer.Subject[oplog.Event] {
	sub := observer.NewSubject[oplog.Event]()
	sub.Attach(oplogfile.New(cfg.OplogPath))
	sub.SetErrorHandler(func(err error) {
		logger.Warn("oplog write failed", zap.Error(err))
	})
	return sub
}

func identity() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
