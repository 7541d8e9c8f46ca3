package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//公開表示名からフォトグラファーを1件取得する（大文字小文字は区別しない）。
	FindPhotographerByDisplayName(ctx context.Context, name string) (*model.User, error)
	// ユーザー情報の更新=>最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
}
