// Package httpclient はブログAPIを呼び出すJSON HTTPクライアントを提供する。
//
// blogctlから使用する。コンテキストに設定した認証トークンをAuthorizationヘッダーとして送り、
// 2xx以外の応答はサーバーのメッセージを保持したStatusErrorとして返す。
package httpclient
