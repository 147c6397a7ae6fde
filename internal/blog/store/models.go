package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// User はブログのユーザー。作成はサインアップ側で行われ、ここでは保存済み投稿のみ更新する。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `gorm:"primaryKey"`
	// Name は表示名。
	Name string
	// About は自己紹介文。
	About string
	// Saved は保存済み投稿IDの集合。
	Saved SavedSet
	// CreatedAt は作成日時。
	CreatedAt time.Time
}

// Post はブログ投稿。publishedがfalseの間は下書きとして扱う。
type Post struct {
	// ID は投稿の一意識別子。
	ID string `gorm:"primaryKey"`
	// Title はタイトル。
	Title string
	// Content は本文。
	Content string
	// Published は公開済みかどうか。
	Published bool
	// PublishedDate は公開日時。
	PublishedDate time.Time
	// Anonymous は匿名投稿かどうか。
	Anonymous bool
	// AuthorID は著者のユーザーID。著者なしの場合はnil。
	AuthorID *string
	// Author は著者。Preloadした場合のみ設定される。
	Author *User `gorm:"foreignKey:AuthorID"`
}

// SavedSet は保存済み投稿IDの集合。DBにはJSON配列として保存する。
// 重複は型ではなく呼び出し側の包含チェックで防ぐ。
type SavedSet []string

// Contains はidが集合に含まれるかを返す。
func (s SavedSet) Contains(id string) bool {
	return slices.Contains(s, id)
}

// Without はidを取り除いた新しい集合を返す。
func (s SavedSet) Without(id string) SavedSet {
	out := make(SavedSet, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Value はdriver.Valuerの実装。
func (s SavedSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("保存済み投稿のシリアライズに失敗: %w", err)
	}
	return string(b), nil
}

// Scan はsql.Scannerの実装。
func (s *SavedSet) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = SavedSet{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("保存済み投稿の型が不正です: %T", src)
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("保存済み投稿のデシリアライズに失敗: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	*s = ids
	return nil
}
