// Package blog はブログ投稿APIのHTTP層を提供する。
//
// /api/v1/blog 配下のすべてのルートはJWT認証を通過した後、リクエスト専用の
// データベース接続に束縛された store.Store を受け取って処理される。
// ハンドラはエラーを返し、ステータスコードへの変換は respondError に集約する。
package blog
