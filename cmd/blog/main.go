// ブログAPIサーバーのエントリポイント。
// 投稿の作成・更新・一覧と、ユーザーごとの保存済み投稿を管理する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/nao1215/blog/internal/blog"
	"github.com/nao1215/blog/internal/blog/store"
	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/pkg/telemetry"
	"gorm.io/gorm/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load()); err != nil {
		log.Fatalf("ブログサービスの起動に失敗: %v", err)
	}
}

// run はトレーサーとデータベースを初期化し、ctxがキャンセルされるまでサーバーを動かす。
func run(ctx context.Context, cfg config.Config) error {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "blog",
		Version:     buildVersion(),
		Env:         cfg.Env,
		Endpoint:    cfg.OtelEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("トレーサーの停止に失敗: %v", err)
		}
	}()

	logLevel := logger.Warn
	if cfg.IsLocal() {
		logLevel = logger.Info
	}
	db, err := store.Open(ctx, cfg.DatabaseURL, logLevel)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(db); err != nil {
			log.Printf("データベースのクローズに失敗: %v", err)
		}
	}()

	server := blog.NewServer(cfg, db)
	log.Printf("ブログサービスを起動します: :%s (db=%s)", cfg.Port, store.DialectFor(cfg.DatabaseURL))
	return server.Run(ctx)
}

// version はリリースビルド時に -ldflags "-X main.version=v1.2.3" で設定する。
var version string

// buildVersion はトレースのリソースに載せるサービスのバージョンを返す。
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	return resolveVersion(version, info, ok)
}

// resolveVersion はリンク時に埋め込んだ値、モジュールのバージョン、"dev" の順に採用する。
func resolveVersion(linked string, info *debug.BuildInfo, ok bool) string {
	if linked != "" {
		return linked
	}
	if ok && info != nil && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
