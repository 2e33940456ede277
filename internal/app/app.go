package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bgunnarsson/ankidb/internal/config"
	"github.com/bgunnarsson/ankidb/internal/db/sqlite"
	"github.com/bgunnarsson/ankidb/internal/ui"
)

// central factory
func openDB(cfg *config.Config, log *zap.SugaredLogger) (*sqlite.Conn, error) {
	if err := cfg.RequireDB(); err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.DB, sqlite.WithDriver(cfg.Driver), sqlite.WithLogger(log))
}

func RunInteractive(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	conn, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	label := fmt.Sprintf("%s (%s)", cfg.DB, conn.Driver())
	return ui.Run(ctx, conn, label)
}
