package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"

	// Turso "remote only" driver (no embedded replicas).
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	// Local file / in-memory driver.
	_ "modernc.org/sqlite"
)

var ErrSQLiteDisabled = errors.New("sqlite ledger disabled: set TURSO_SQLITE_DSN or TURSO_SQLITE_PATH (and TURSO_SQLITE_TOKEN for remote)")

// --- disabled connection (keeps app booting, but fails fast when used) ---

type sqliteErrConnector struct{}

func (sqliteErrConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, ErrSQLiteDisabled
}
func (sqliteErrConnector) Driver() driver.Driver { return sqliteErrDriver{} }

type sqliteErrDriver struct{}

func (sqliteErrDriver) Open(string) (driver.Conn, error) { return nil, ErrSQLiteDisabled }

type disabledSQLiteConn struct {
	x *sqlx.DB
}

func newDisabledSQLiteConn() disabledSQLiteConn {
	return disabledSQLiteConn{
		x: sqlx.NewDb(sql.OpenDB(sqliteErrConnector{}), "libsql"),
	}
}

func (c disabledSQLiteConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrSQLiteDisabled
}
func (c disabledSQLiteConn) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return c.x.QueryRowxContext(ctx, query, args...)
}
func (c disabledSQLiteConn) GetContext(context.Context, any, string, ...any) error {
	return ErrSQLiteDisabled
}
func (c disabledSQLiteConn) SelectContext(context.Context, any, string, ...any) error {
	return ErrSQLiteDisabled
}
func (c disabledSQLiteConn) BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, ErrSQLiteDisabled
}
func (c disabledSQLiteConn) Rebind(query string) string { return c.x.Rebind(query) }

// --- Fx output ---

type SQLiteSQLXOut struct {
	fx.Out

	DB   *sqlx.DB `name:"sqlite"`
	Conn Conn     `name:"sqlite"`
}

type NewSQLXSQLiteDBParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

// NewSQLXSQLiteDB opens the SQLite ledger database. A libsql:// DSN goes
// through the Turso remote driver; a plain path or file: DSN uses the local
// driver. With no DSN configured the app still boots, but every use fails
// fast with ErrSQLiteDisabled.
func NewSQLXSQLiteDB(p NewSQLXSQLiteDBParams) (SQLiteSQLXOut, error) {
	dsn := strings.TrimSpace(p.Cfg.Turso.DSN)
	if dsn == "" {
		dsn = strings.TrimSpace(p.Cfg.Turso.Path)
	}

	if dsn == "" {
		p.Logger.Infow("sqlite_ledger_disabled")
		return SQLiteSQLXOut{DB: nil, Conn: newDisabledSQLiteConn()}, nil
	}

	driverName := "sqlite"
	if isRemoteDSN(dsn) {
		driverName = "libsql"
		dsn = ensureAuthTokenQuery(dsn, p.Cfg.Turso.Token)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return SQLiteSQLXOut{}, fmt.Errorf("open sqlite ledger db: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.Mapper = reflectx.NewMapperFunc("db", strings.ToLower)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping sqlite ledger db: %w", err)
			}
			p.Logger.Infow("sqlite_ledger_enabled", "driver", driverName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return SQLiteSQLXOut{DB: db, Conn: db}, nil
}

func isRemoteDSN(dsn string) bool {
	u, err := url.Parse(dsn)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "libsql", "wss", "https":
		return true
	}
	return false
}

func ensureAuthTokenQuery(dsn, token string) string {
	if token == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}

	// Don't add tokens to local sqlite/file DSNs.
	if strings.EqualFold(u.Scheme, "file") || strings.EqualFold(u.Scheme, "sqlite") {
		return dsn
	}

	q := u.Query()
	if q.Get("authToken") != "" {
		return dsn
	}

	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}
