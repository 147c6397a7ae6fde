package blog

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/blog/store"
	"gorm.io/gorm"
)

// contextKeyStore はGinコンテキストにStoreを格納するキー。
const contextKeyStore = "store"

// persistence はリクエスト専用の接続をプールから取得し、それに束縛したStoreを
// コンテキストに設定するミドルウェアを返す。接続は後続のハンドラが戻った時点で返却される。
func (s *Server) persistence() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.db.WithContext(c.Request.Context()).Connection(func(conn *gorm.DB) error {
			c.Set(contextKeyStore, store.New(conn))
			c.Next()
			return nil
		})
		if err != nil {
			respondError(c, fmt.Errorf("データベース接続の取得に失敗: %w", err))
		}
	}
}

// storeFrom はコンテキストからリクエスト専用のStoreを取り出す。
func storeFrom(c *gin.Context) (*store.Store, error) {
	v, ok := c.Get(contextKeyStore)
	if !ok {
		return nil, errors.New("コンテキストにStoreがありません")
	}
	st, ok := v.(*store.Store)
	if !ok {
		return nil, fmt.Errorf("コンテキストのStoreの型が不正です: %T", v)
	}
	return st, nil
}
