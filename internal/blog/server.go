package blog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/pkg/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はブログAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// db はアプリケーション全体で共有するコネクションプール。
	db *gorm.DB
	// cfg はサーバー設定。
	cfg config.Config
}

// NewServer は新しいブログサーバーを生成する。
// dbはマイグレーション適用済みであること。
func NewServer(cfg config.Config, db *gorm.DB) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.FrontendOrigins))

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
	}
	s.setupRoutes()

	return s
}

// Handler はトレース計装済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "blog")
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルにシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	log.Printf("ブログサービスを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1/blog")
	api.Use(middleware.JWTAuth(s.cfg.JWTSecret))
	api.Use(s.persistence())
	{
		// 投稿作成
		api.POST("", s.handleCreate())
		api.POST("/", s.handleCreate())
		// 投稿更新
		api.PUT("/:id", s.handleUpdate())
		// 自分の下書き一覧
		api.GET("/drafts", s.handleDrafts())
		// 公開済み投稿一覧
		api.GET("/bulk", s.handleBulk())
		// 保存済み投稿一覧（保存済み集合から取得）
		api.GET("/saved", s.handleSavedOfUser())
		// 投稿詳細取得
		api.GET("/:id", s.handleGetByID())
		// 投稿を保存
		api.POST("/save", s.handleSave())
		// 投稿の保存を解除
		api.POST("/unsave", s.handleUnsave())
		// 保存済み投稿一覧（リクエストのID一覧から取得）
		api.POST("/saved", s.handleSaved())
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
// データベースへ疎通できない場合は503を返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Printf("[Health] データベースへの疎通確認に失敗: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "blog"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "blog"})
	}
}
