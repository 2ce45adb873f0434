// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/countboard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はメール/パスワード登録のユーザーを作成する。
	// メールアドレスが既に使用されている場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	// OAuth経由の初回ログインで使用する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// UserDataRepository はアプリケーションレベルのユーザーレコードの永続化インターフェース。
type UserDataRepository interface {
	// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.UserData, error)

	// FindByUserID は指定ユーザーIDのレコードを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserData, error)

	// InsertIfAbsent はレコードが存在しない場合のみ作成する。
	// user_idのUNIQUE制約に基づくINSERT ... ON CONFLICT DO NOTHINGのため、
	// 同時実行されても1ユーザーにつき高々1行しか作成されない。
	// 実際に行を作成した場合はtrueを返す。
	InsertIfAbsent(ctx context.Context, userID, email string) (bool, error)

	// ListAll は全レコードをid昇順で返す。
	ListAll(ctx context.Context) ([]*model.UserData, error)

	// IncrementCounter は指定ユーザーのカウンターをアトミックに+1し、
	// 更新後のレコードを返す。レコードが存在しない場合はnilを返す。
	IncrementCounter(ctx context.Context, userID string) (*model.UserData, error)
}

// PublicTableRepository はグローバルカウンター行の永続化インターフェース。
type PublicTableRepository interface {
	// FindGlobalCounter はid = 0のグローバルカウンター行を取得する。
	// 行が存在しない場合はnilを返す。
	FindGlobalCounter(ctx context.Context) (*model.GlobalCounter, error)

	// IncrementGlobalCounter はグローバルカウンターをアトミックに+1し、
	// 更新後の値を返す。
	IncrementGlobalCounter(ctx context.Context) (int64, error)
}
