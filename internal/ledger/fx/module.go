package fx

import (
	"context"
	"fmt"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/db"
	"alideal-affiliate-relay/internal/ledger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module(
	"ledger",
	fx.Provide(NewLedger),
)

type NewLedgerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger

	// Backend-specific collaborators; only the configured one is required.
	SQLiteConn db.Conn               `name:"sqlite" optional:"true"`
	PostgresDB *sqlx.DB              `optional:"true"`
	Redis      *redis.Client         `optional:"true"`
	Scanner    ledger.HistoryScanner `optional:"true"`
}

// NewLedger selects the dedup backend from LEDGER_BACKEND. The sql backend
// prefers Postgres when one is configured and falls back to the SQLite
// ledger database otherwise.
func NewLedger(p NewLedgerParams) (ledger.Ledger, error) {
	cooldown := p.Cfg.Ledger.Cooldown

	switch p.Cfg.Ledger.Backend {
	case "memory":
		return ledger.NewMemory(cooldown), nil

	case "file":
		return ledger.NewFile(p.Cfg.Ledger.FilePath, p.Logger)

	case "sql":
		if p.PostgresDB != nil {
			return ledger.NewSQLStore(p.PostgresDB, cooldown, p.Logger), nil
		}
		if p.SQLiteConn == nil {
			return nil, fmt.Errorf("LEDGER_BACKEND=sql requires the sqlite database module or DB_HOST/DB_NAME")
		}
		// The sqlite Conn exists even when unconfigured; in that case every
		// use fails fast with db.ErrSQLiteDisabled.
		return ledger.NewSQLStore(p.SQLiteConn, cooldown, p.Logger), nil

	case "redis":
		if p.Redis == nil {
			return nil, fmt.Errorf("LEDGER_BACKEND=redis requires REDIS_HOST")
		}
		return ledger.NewRedis(p.Redis, cooldown), nil

	case "feed":
		if p.Scanner == nil {
			return nil, fmt.Errorf("LEDGER_BACKEND=feed requires a feed history source")
		}
		feed := ledger.NewFeed(p.Scanner, p.Cfg.Telegram.TargetChannel, p.Cfg.Ledger.FeedLookback, p.Logger)
		p.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				// A failed scan only risks a duplicate post, never a boot failure.
				_ = feed.Load(ctx)
				return nil
			},
		})
		return feed, nil

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", p.Cfg.Ledger.Backend)
	}
}
