// ブログAPIのコマンドラインクライアント。
// 公開済み一覧・下書き・詳細の取得、投稿の作成と編集、保存と保存解除を行う。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nao1215/blog/pkg/httpclient"
)

// usage はblogctlの使い方。
const usage = `使い方: blogctl <command> [flags] [args]

commands:
  bulk                       公開済み投稿の一覧
  drafts                     自分の下書き一覧
  get <id>                   投稿の詳細
  create -title T -content C 投稿を作成
  update <id> [flags]        投稿を更新 (-title -content -published -anonymous -author)
  save <id>                  投稿を保存
  unsave <id>                投稿の保存を解除
  saved [ids...]             保存済み投稿の一覧 (IDを省略すると自分の保存済み集合)

environment:
  BLOG_API_URL  APIのベースURL (デフォルト: http://localhost:8787/api/v1/blog)
  BLOG_TOKEN    認証トークン
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	baseURL := os.Getenv("BLOG_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8787/api/v1/blog"
	}
	ctx = httpclient.WithToken(ctx, os.Getenv("BLOG_TOKEN"))

	if err := run(ctx, httpclient.New(baseURL), os.Args[1:], os.Stdout); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			fmt.Fprintf(os.Stderr, "blogctl: %d %s\n", statusErr.Code, statusErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "blogctl: %v\n", err)
		}
		os.Exit(1)
	}
}

// errUsage はコマンドの指定が不正であることを表す。
var errUsage = errors.New("引数が不正です")

// run はサブコマンドを実行し、レスポンスのJSONをoutに書き出す。
func run(ctx context.Context, client *httpclient.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	var (
		result json.RawMessage
		err    error
	)
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "bulk":
		err = client.GetJSON(ctx, "/bulk", &result)
	case "drafts":
		err = client.GetJSON(ctx, "/drafts", &result)
	case "get":
		var id string
		if id, err = single(rest); err == nil {
			err = client.GetJSON(ctx, "/"+id, &result)
		}
	case "create":
		err = runCreate(ctx, client, rest, &result)
	case "update":
		err = runUpdate(ctx, client, rest, &result)
	case "save", "unsave":
		var id string
		if id, err = single(rest); err == nil {
			err = client.PostJSON(ctx, "/"+cmd, map[string]string{"id": id}, &result)
		}
	case "saved":
		if len(rest) == 0 {
			err = client.GetJSON(ctx, "/saved", &result)
		} else {
			err = client.PostJSON(ctx, "/saved", map[string][]string{"saved": rest}, &result)
		}
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: 不明なコマンド %q", errUsage, cmd)
	}
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

// single は引数がちょうど1つであることを確認して返す。
func single(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: IDを1つ指定してください", errUsage)
	}
	return args[0], nil
}

// runCreate はcreateサブコマンドを実行する。
func runCreate(ctx context.Context, client *httpclient.Client, args []string, result any) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "タイトル")
	content := fs.String("content", "", "本文")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return client.PostJSON(ctx, "/", map[string]string{"title": *title, "content": *content}, result)
}

// runUpdate はupdateサブコマンドを実行する。指定したフラグのフィールドだけを送信する。
func runUpdate(ctx context.Context, client *httpclient.Client, args []string, result any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: IDを指定してください", errUsage)
	}
	id := args[0]

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.String("title", "", "タイトル")
	fs.String("content", "", "本文")
	fs.Bool("published", false, "公開する")
	fs.Bool("anonymous", false, "匿名で公開する")
	fs.String("author", "", "著者の表示名")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	body := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		if getter, ok := f.Value.(flag.Getter); ok {
			body[f.Name] = getter.Get()
		}
	})
	return client.PutJSON(ctx, "/"+id, body, result)
}

// printJSON はレスポンスを整形して書き出す。
func printJSON(out io.Writer, raw json.RawMessage) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("レスポンスの出力に失敗: %w", err)
	}
	return nil
}
