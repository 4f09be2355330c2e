package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jamjob-backend/internal/database"
	"jamjob-backend/internal/logger"
	"jamjob-backend/internal/repository"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func indexesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel, os.Stdout)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := database.Connect(ctx, cfg.MongoURI, cfg.DBName)
			if err != nil {
				return fmt.Errorf("connect to MongoDB: %w", err)
			}
			defer store.Close(context.Background())

			failed := ensureIndexes(ctx, log,
				repository.NewUserRepo(store),
				repository.NewJobRepo(store),
				repository.NewPaymentRepo(store),
			)
			if failed > 0 {
				return fmt.Errorf("%d index group(s) failed", failed)
			}
			log.Info("indexes ensured")
			return nil
		},
	}
}

// ensureIndexes logs each failure and returns how many repos failed.
func ensureIndexes(ctx context.Context, log logrus.FieldLogger, repos ...indexer) int {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	failed := 0
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			log.WithError(err).WithField("repo", fmt.Sprintf("%T", r)).Warn("failed to create indexes")
			failed++
		}
	}
	return failed
}
