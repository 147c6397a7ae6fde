package store

import (
	"context"
	"fmt"
)

// CreateUser はユーザーを作成する。通常はサインアップ側で作成される。
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if user.Saved == nil {
		user.Saved = SavedSet{}
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}
	return nil
}

// GetUser はIDでユーザーを取得する。存在しない場合はErrNotFoundを返す。
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", translate(err))
	}
	return &user, nil
}

// FindUserByName は表示名が一致する最初のユーザーを返す。名前の一意性は保証しない。
func (s *Store) FindUserByName(ctx context.Context, name string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("name = ?", name).Take(&user).Error; err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", translate(err))
	}
	return &user, nil
}

// SetSaved はユーザーの保存済み投稿集合を丸ごと置き換える。
// 読み取りと置き換えは同一トランザクションではないため、同一ユーザーへの同時更新は後勝ちになる。
func (s *Store) SetSaved(ctx context.Context, userID string, saved SavedSet) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("saved", saved)
	if res.Error != nil {
		return fmt.Errorf("保存済み投稿の更新に失敗: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("保存済み投稿の更新に失敗: %w", ErrNotFound)
	}
	return nil
}
