// Package config は環境変数からブログAPIサーバーの設定を読み込む。
package config

import (
	"os"
	"strings"
)

// Config はブログAPIサーバーの設定。
type Config struct {
	// Port はリッスンポート。
	Port string
	// DatabaseURL はデータベースの接続文字列。postgres:// で始まる場合はPostgreSQLを使う。
	DatabaseURL string
	// JWTSecret はJWTの署名検証に使う共有シークレット。
	JWTSecret string
	// FrontendOrigins はCORSで許可するオリジン。
	FrontendOrigins []string
	// OtelEndpoint はOTLPトレースの送信先。空の場合はトレースを無効にする。
	OtelEndpoint string
	// Env は実行環境名（local, production など）。
	Env string
}

// Load は環境変数から設定を読み込む。未設定の項目は開発用のデフォルト値を使う。
func Load() Config {
	return Config{
		Port:            getEnvOr("PORT", "8787"),
		DatabaseURL:     getEnvOr("DATABASE_URL", "file:/data/blog.db"),
		JWTSecret:       getEnvOr("JWT_SECRET", "dev-secret-key"),
		FrontendOrigins: splitList(getEnvOr("FRONTEND_URL", "*")),
		OtelEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Env:             getEnvOr("APP_ENV", "local"),
	}
}

// IsLocal はローカル開発環境かどうかを返す。
func (c Config) IsLocal() bool {
	return c.Env == "local"
}

// getEnvOr は環境変数の値を返す。未設定または空の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// splitList はカンマ区切りの値を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
