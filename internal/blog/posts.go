package blog

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/blog/store"
	"github.com/nao1215/blog/pkg/middleware"
)

// anonymousAuthor は著者の付け替えを行わない著者名。
const anonymousAuthor = "Anonymous"

// createPostRequest は投稿作成リクエストのJSON構造。
// 空文字は許可し、欠落と文字列以外の値を不正とする。
type createPostRequest struct {
	// Title はタイトル。
	Title *string `json:"title" binding:"required"`
	// Content は本文。
	Content *string `json:"content" binding:"required"`
}

// updatePostRequest は投稿更新リクエストのJSON構造。省略したフィールドは更新しない。
type updatePostRequest struct {
	// Title はタイトル。
	Title *string `json:"title"`
	// Content は本文。
	Content *string `json:"content"`
	// Published は公開済みフラグ。
	Published *bool `json:"published"`
	// Anonymous は匿名投稿フラグ。
	Anonymous *bool `json:"anonymous"`
	// Author は著者の表示名。
	Author *string `json:"author"`
}

// postResponse は投稿行そのもののJSONレスポンス構造。
type postResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Published     bool      `json:"published"`
	PublishedDate time.Time `json:"publishedDate"`
	Anonymous     bool      `json:"anonymous"`
	AuthorID      *string   `json:"authorId"`
}

// postView はエンドポイントごとに射影した投稿のJSONレスポンス構造。
type postView struct {
	Content       string      `json:"content"`
	Title         string      `json:"title"`
	ID            string      `json:"id"`
	Published     *bool       `json:"published,omitempty"`
	PublishedDate time.Time   `json:"publishedDate"`
	Anonymous     bool        `json:"anonymous"`
	Author        *authorView `json:"author"`
}

// authorView は射影した著者のJSONレスポンス構造。
type authorView struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	About *string `json:"about,omitempty"`
}

// projection は投稿一覧で返すフィールドの組み合わせ。
type projection struct {
	// published は公開済みフラグを含めるかどうか。
	published bool
	// authorID は著者IDを含めるかどうか。
	authorID bool
	// authorAbout は著者の自己紹介文を含めるかどうか。
	authorAbout bool
}

var (
	draftProjection  = projection{published: true}
	bulkProjection   = projection{}
	detailProjection = projection{authorID: true, authorAbout: true}
	savedProjection  = projection{authorID: true}
)

// toPostResponse はDB行をJSONレスポンスに変換する。
func toPostResponse(p *store.Post) postResponse {
	return postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Published:     p.Published,
		PublishedDate: p.PublishedDate,
		Anonymous:     p.Anonymous,
		AuthorID:      p.AuthorID,
	}
}

// views は投稿一覧を射影に従ってJSONレスポンスに変換する。
func (pr projection) views(posts []store.Post) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		v := postView{
			Content:       p.Content,
			Title:         p.Title,
			ID:            p.ID,
			PublishedDate: p.PublishedDate,
			Anonymous:     p.Anonymous,
		}
		if pr.published {
			published := p.Published
			v.Published = &published
		}
		if p.Author != nil {
			a := &authorView{Name: p.Author.Name}
			if pr.authorID {
				a.ID = p.Author.ID
			}
			if pr.authorAbout {
				about := p.Author.About
				a.About = &about
			}
			v.Author = a
		}
		out = append(out, v)
	}
	return out
}

// currentUserID は認証済みユーザーのIDを返す。
func currentUserID(c *gin.Context) (string, error) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return "", errNotLoggedIn
	}
	return userID, nil
}

// handleCreate は投稿作成を処理するハンドラを返す。
// 投稿は下書きとして作成され、著者は認証済みユーザーになる。
func (s *Server) handleCreate() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		userID, err := currentUserID(c)
		if err != nil {
			return err
		}

		var req createPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("[Blog] 投稿作成の入力が不正: %v", err)
			return errInvalidInputs
		}

		st, err := storeFrom(c)
		if err != nil {
			return err
		}
		post, err := st.CreatePost(c.Request.Context(), store.CreatePostParams{
			Title:    *req.Title,
			Content:  *req.Content,
			AuthorID: userID,
		})
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"id": post.ID})
		return nil
	})
}

// handleUpdate は投稿更新を処理するハンドラを返す。
// 存在しない投稿を含め、すべての失敗は500になる。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		var req updatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return fmt.Errorf("リクエストの解析に失敗: %w", err)
		}

		st, err := storeFrom(c)
		if err != nil {
			return err
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		// 著者名の解決結果は更新内容に含めない
		if req.Author != nil && *req.Author != anonymousAuthor {
			author, err := st.FindUserByName(ctx, *req.Author)
			switch {
			case errors.Is(err, store.ErrNotFound):
				log.Printf("[Blog] 著者 %q が見つかりません: post=%s", *req.Author, id)
			case err != nil:
				return err
			default:
				log.Printf("[Blog] 著者 %q をユーザー %s に解決: post=%s", *req.Author, author.ID, id)
			}
		}

		post, err := st.UpdatePost(ctx, id, store.UpdatePostParams{
			Title:     req.Title,
			Content:   req.Content,
			Published: req.Published,
			Anonymous: req.Anonymous,
		})
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"response": toPostResponse(post)})
		return nil
	})
}

// handleDrafts は自分の下書き一覧を処理するハンドラを返す。
// 下書きがない場合は空配列ではなくメッセージを返す。
func (s *Server) handleDrafts() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		userID, err := currentUserID(c)
		if err != nil {
			return err
		}
		st, err := storeFrom(c)
		if err != nil {
			return err
		}

		posts, err := st.ListDrafts(c.Request.Context(), userID)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "No drafts found"})
			return nil
		}

		c.JSON(http.StatusOK, gin.H{"blogs": draftProjection.views(posts)})
		return nil
	})
}

// handleBulk は公開済み投稿一覧を処理するハンドラを返す。
func (s *Server) handleBulk() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		st, err := storeFrom(c)
		if err != nil {
			return err
		}

		posts, err := st.ListPublished(c.Request.Context())
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"blogs": bulkProjection.views(posts)})
		return nil
	})
}

// handleGetByID は投稿詳細取得を処理するハンドラを返す。
// 公開状態に関係なく返し、見つからない場合は空配列になる。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		st, err := storeFrom(c)
		if err != nil {
			return err
		}

		posts, err := st.GetPostsByIDs(c.Request.Context(), []string{c.Param("id")})
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"response": detailProjection.views(posts)})
		return nil
	})
}
