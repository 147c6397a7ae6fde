package blog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/blog/store"
)

// savePostRequest は保存・保存解除リクエストのJSON構造。
type savePostRequest struct {
	// ID は対象の投稿ID。保存解除では省略を未保存のIDとして扱う。
	ID string `json:"id"`
}

// savedPostsRequest は保存済み投稿一覧リクエストのJSON構造。
type savedPostsRequest struct {
	// Saved は取得する投稿IDの一覧。
	Saved []string `json:"saved"`
}

// loadUser は認証済みユーザーの行を取得する。存在しない場合はerrUserNotFoundを返す。
func loadUser(c *gin.Context, st *store.Store) (*store.User, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	user, err := st.GetUser(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// bindSaveRequest は保存・保存解除リクエストを解析し、Storeと呼び出し元のユーザーを返す。
func bindSaveRequest(c *gin.Context) (*store.Store, *store.User, string, error) {
	var req savePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, "", fmt.Errorf("リクエストの解析に失敗: %w", err)
	}
	st, err := storeFrom(c)
	if err != nil {
		return nil, nil, "", err
	}
	user, err := loadUser(c, st)
	if err != nil {
		return nil, nil, "", err
	}
	return st, user, req.ID, nil
}

// handleSave は投稿の保存を処理するハンドラを返す。
// 既に保存済みの場合は何もしない。読み取りから書き込みまでは排他しない。
func (s *Server) handleSave() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		st, user, postID, err := bindSaveRequest(c)
		if err != nil {
			return err
		}
		if postID == "" {
			return errors.New("保存する投稿IDが指定されていません")
		}

		if !user.Saved.Contains(postID) {
			saved := append(store.SavedSet{}, user.Saved...)
			if err := st.SetSaved(c.Request.Context(), user.ID, append(saved, postID)); err != nil {
				return err
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Post saved successfully"})
		return nil
	})
}

// handleUnsave は投稿の保存解除を処理するハンドラを返す。
// 保存されていない場合は何もしない。
func (s *Server) handleUnsave() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		st, user, postID, err := bindSaveRequest(c)
		if err != nil {
			return err
		}

		if user.Saved.Contains(postID) {
			if err := st.SetSaved(c.Request.Context(), user.ID, user.Saved.Without(postID)); err != nil {
				return err
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Post unsaved successfully"})
		return nil
	})
}

// handleSaved はリクエストで指定されたID一覧の投稿を返すハンドラを返す。
// ID一覧は呼び出し元の保存済み集合と照合しない。
func (s *Server) handleSaved() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		var req savedPostsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return fmt.Errorf("リクエストの解析に失敗: %w", err)
		}
		st, err := storeFrom(c)
		if err != nil {
			return err
		}

		posts, err := st.GetPostsByIDs(c.Request.Context(), req.Saved)
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"response": savedProjection.views(posts)})
		return nil
	})
}

// handleSavedOfUser は呼び出し元の保存済み集合から投稿一覧を返すハンドラを返す。
func (s *Server) handleSavedOfUser() gin.HandlerFunc {
	return handle(func(c *gin.Context) error {
		st, err := storeFrom(c)
		if err != nil {
			return err
		}
		user, err := loadUser(c, st)
		if err != nil {
			return err
		}

		posts, err := st.GetPostsByIDs(c.Request.Context(), user.Saved)
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"response": savedProjection.views(posts)})
		return nil
	})
}
