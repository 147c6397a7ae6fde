package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// サインアップ/サインイン時に発行されたトークンの {id, name} をそのまま受け取る。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"id"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
}

const (
	// contextKeyUserID はGinコンテキストにユーザーIDを格納するキー。
	contextKeyUserID = "user_id"
	// contextKeyUserName はGinコンテキストに表示名を格納するキー。
	contextKeyUserName = "user_name"
)

// MessageNotLoggedIn は認証失敗時に返す固定メッセージ。
const MessageNotLoggedIn = "You are not logged in"

// errMissingCredential はAuthorizationヘッダーが空であることを表す。
var errMissingCredential = errors.New("Authorizationヘッダーがありません")

// GenerateJWT はユーザー情報からHS256署名のJWTトークンを生成する。
// ttlが0以下の場合は有効期限を設定しない（発行元のトークンと同じ形式）。
func GenerateJWT(secret, userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Name:   name,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// VerifyJWT はAuthorizationヘッダーの値を検証し、クレームを返す。
// クライアントはトークンをそのまま送るため "Bearer " 接頭辞は任意とする。
func VerifyJWT(secret, header string) (*JWTClaims, error) {
	tokenString := strings.TrimSpace(header)
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return nil, errMissingCredential
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("トークンにユーザーIDが含まれていません")
	}
	return claims, nil
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user_id" と "user_name" を設定する。
// ヘッダー欠落・検証失敗・検証中のパニックはすべて403と固定メッセージで応答し、後続を呼ばない。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifySafely(secret, c.GetHeader("Authorization"))
		if err != nil {
			log.Printf("[Auth] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": MessageNotLoggedIn,
			})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyUserName, claims.Name)
		c.Next()
	}
}

// verifySafely はVerifyJWTのパニックもエラーとして扱う。
func verifySafely(secret, header string) (claims *JWTClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims, err = nil, fmt.Errorf("トークン検証中にパニック: %v", r)
		}
	}()
	return VerifyJWT(secret, header)
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

// GetUserName はGinコンテキストからユーザーの表示名を取得する。
func GetUserName(c *gin.Context) string {
	return c.GetString(contextKeyUserName)
}
