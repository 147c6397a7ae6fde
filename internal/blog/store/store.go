// Package store はブログの永続化ゲートウェイを提供する。
//
// GORMのモデルとクエリ、DATABASE_URLに応じたドライバ選択（SQLite/PostgreSQL）、
// embedされたマイグレーションを含む。Storeは1リクエスト分の接続に束縛して使う。
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nao1215/blog/pkg/migration"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound は対象の行が存在しないことを表す。
var ErrNotFound = errors.New("レコードが見つかりません")

// sqlitePragmas はSQLite接続時に必ず付与するPRAGMA。
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// DialectFor は接続文字列からSQL方言を判定する。
func DialectFor(dsn string) migration.Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return migration.DialectPostgres
	}
	return migration.DialectSQLite
}

// Open は接続文字列に応じたデータベースを開き、マイグレーションを適用したGORMハンドルを返す。
// logLevelはGORMのSQLログの出力レベル。
func Open(ctx context.Context, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dialect := DialectFor(dsn)

	var (
		sqlDB     *sql.DB
		dialector gorm.Dialector
	)
	switch dialect {
	case migration.DialectPostgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("接続文字列の解析に失敗: %w", err)
		}
		cfg.Tracer = otelpgx.NewTracer()
		sqlDB = stdlib.OpenDB(*cfg)
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		var err error
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("データベース接続に失敗: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		dialector = sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	dir := "migrations/" + string(dialect)
	if err := migration.Run(ctx, sqlDB, dialect, migrationsFS, dir); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.Default(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ORMの初期化に失敗: %w", err)
	}
	return db, nil
}

// Close はGORMハンドルが保持するコネクションプールを閉じる。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteDSN はSQLiteの接続文字列にPRAGMAを付与する。
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// Store は永続化ゲートウェイ。リクエストごとに接続へ束縛したGORMハンドルから生成する。
type Store struct {
	// db はGORMのハンドル。
	db *gorm.DB
}

// New は新しいStoreを生成する。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate はGORMのエラーをパッケージのエラーに変換する。
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
