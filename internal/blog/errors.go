package blog

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/pkg/middleware"
)

// apiError はクライアントにそのまま返すエラー。ステータスコードとJSONボディを持つ。
type apiError struct {
	// status はHTTPステータスコード。
	status int
	// body はレスポンスボディ。
	body gin.H
}

// Error はerrorインターフェースの実装。
func (e *apiError) Error() string {
	return http.StatusText(e.status)
}

var (
	// errNotLoggedIn は認証情報がコンテキストにないことを表す。
	errNotLoggedIn = &apiError{status: http.StatusForbidden, body: gin.H{"message": middleware.MessageNotLoggedIn}}
	// errInvalidInputs は投稿作成の入力が不正であることを表す。
	errInvalidInputs = &apiError{status: http.StatusForbidden, body: gin.H{"message": "Invalid Inputs"}}
	// errUserNotFound は呼び出し元のユーザーが存在しないことを表す。
	errUserNotFound = &apiError{status: http.StatusNotFound, body: gin.H{"error": "User not found"}}
)

// respondError はエラーをレスポンスに変換する。
// apiError以外はすべて500とし、原因をログに残す。
func respondError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, apiErr.body)
		return
	}

	log.Printf("[Blog] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}

// handle はエラーを返すハンドラをGinのハンドラに変換する。
func handle(fn func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			respondError(c, err)
		}
	}
}
