package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postColumns は一覧系で取得する投稿の列。
var postColumns = []string{"id", "title", "content", "published", "published_date", "anonymous", "author_id"}

// authorColumns はPreloadする著者の列を絞り込む。
func authorColumns(columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(columns)
	}
}

// CreatePostParams は投稿作成のパラメータ。
type CreatePostParams struct {
	// Title はタイトル。
	Title string
	// Content は本文。
	Content string
	// AuthorID は著者のユーザーID。
	AuthorID string
}

// CreatePost は下書き状態の投稿を作成する。重複チェックは行わない。
func (s *Store) CreatePost(ctx context.Context, arg CreatePostParams) (*Post, error) {
	authorID := arg.AuthorID
	post := &Post{
		ID:            uuid.New().String(),
		Title:         arg.Title,
		Content:       arg.Content,
		PublishedDate: time.Now().UTC(),
		AuthorID:      &authorID,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗: %w", err)
	}
	return post, nil
}

// UpdatePostParams は投稿更新のパラメータ。nilのフィールドは更新しない。
type UpdatePostParams struct {
	// Title はタイトル。
	Title *string
	// Content は本文。
	Content *string
	// Published は公開済みフラグ。
	Published *bool
	// Anonymous は匿名投稿フラグ。
	Anonymous *bool
}

// assignments は更新対象の列と値を返す。
func (p UpdatePostParams) assignments() map[string]any {
	values := make(map[string]any, 4)
	if p.Title != nil {
		values["title"] = *p.Title
	}
	if p.Content != nil {
		values["content"] = *p.Content
	}
	if p.Published != nil {
		values["published"] = *p.Published
	}
	if p.Anonymous != nil {
		values["anonymous"] = *p.Anonymous
	}
	return values
}

// UpdatePost は投稿を更新し、更新後の行を返す。著者は変更しない。
// 投稿が存在しない場合はErrNotFoundを返す。
func (s *Store) UpdatePost(ctx context.Context, id string, arg UpdatePostParams) (*Post, error) {
	db := s.db.WithContext(ctx)

	if values := arg.assignments(); len(values) > 0 {
		if err := db.Model(&Post{}).Where("id = ?", id).Updates(values).Error; err != nil {
			return nil, fmt.Errorf("投稿の更新に失敗: %w", err)
		}
	}

	var post Post
	if err := db.Where("id = ?", id).Take(&post).Error; err != nil {
		return nil, fmt.Errorf("更新後の投稿の取得に失敗: %w", translate(err))
	}
	return &post, nil
}

// ListDrafts は指定ユーザーが所有する未公開の投稿を著者名付きで返す。
func (s *Store) ListDrafts(ctx context.Context, authorID string) ([]Post, error) {
	posts := []Post{}
	err := s.db.WithContext(ctx).
		Select(postColumns).
		Preload("Author", authorColumns("id", "name")).
		Where("author_id = ? AND published = ?", authorID, false).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("下書き一覧の取得に失敗: %w", err)
	}
	return posts, nil
}

// ListPublished は公開済みの投稿をすべて著者名付きで返す。件数制限や並び替えは行わない。
func (s *Store) ListPublished(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	err := s.db.WithContext(ctx).
		Select(postColumns).
		Preload("Author", authorColumns("id", "name")).
		Where("published = ?", true).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("公開済み一覧の取得に失敗: %w", err)
	}
	return posts, nil
}

// GetPostsByIDs は指定IDの投稿を公開状態に関係なく著者付きで返す。
// 見つからないIDは無視する。
func (s *Store) GetPostsByIDs(ctx context.Context, ids []string) ([]Post, error) {
	posts := []Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	err := s.db.WithContext(ctx).
		Select(postColumns).
		Preload("Author", authorColumns("id", "name", "about")).
		Where("id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗: %w", err)
	}
	return posts, nil
}
