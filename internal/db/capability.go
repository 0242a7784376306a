package db

import (
	"context"
	"database/sql"
	"time"

	"ridemods-be/internal/config"
	"ridemods-be/internal/logger"

	"go.uber.org/zap"
)

// Capabilities describes what the connected store can do. It is produced
// once at startup and threaded through as an explicit dependency rather
// than consulted as ambient state.
type Capabilities struct {
	Transactions bool
}

// DetectCapabilities decides whether multi-statement transactions are
// available. TX_MODE=on/off overrides the probe; auto opens and rolls back
// an empty transaction. The probe fails on pools that run in statement
// mode (pgbouncer and friends), which is exactly the degraded case the
// checkout path must know about.
func DetectCapabilities(database *sql.DB, cfg *config.Config) Capabilities {
	switch cfg.TxMode {
	case config.TxModeOn:
		return Capabilities{Transactions: true}
	case config.TxModeOff:
		logger.L().Warn("transactions disabled by TX_MODE; checkout runs in degraded best-effort mode")
		return Capabilities{Transactions: false}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		logger.L().Warn("transaction probe failed; checkout runs in degraded best-effort mode",
			zap.Error(err),
		)
		return Capabilities{Transactions: false}
	}
	_ = tx.Rollback()

	return Capabilities{Transactions: true}
}
