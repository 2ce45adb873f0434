// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, counter, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// AuthAPIError は認証APIが明示的に拒否したことを表すエラー。
// Messageはそのままエンドユーザーに表示してよい。
// それ以外のエラー（ネットワーク障害、予期しない例外）は一般メッセージに
// 置き換え、元のエラーはログにのみ記録する。
type AuthAPIError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *AuthAPIError) Error() string {
	return e.Message
}

// AsAuthAPIError はエラーチェーンからAuthAPIErrorを取り出す。
// 認証APIエラーでない場合はnilとfalseを返す。
func AsAuthAPIError(err error) (*AuthAPIError, bool) {
	var authErr *AuthAPIError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// 定義済みエラーコード
const (
	ErrCodePasswordMismatch = "PASSWORD_MISMATCH"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeCounterNotFound  = "COUNTER_NOT_FOUND"
)

// 認証APIの定義メッセージ。
// UIにそのまま表示される文字列のため変更しないこと。
const (
	MsgUserAlreadyRegistered   = "User already registered"
	MsgInvalidLoginCredentials = "Invalid login credentials"
)

// NewUserAlreadyRegisteredError は登録済みメールアドレスでのサインアップ時の
// 認証APIエラーを生成する。
func NewUserAlreadyRegisteredError() *AuthAPIError {
	return &AuthAPIError{Message: MsgUserAlreadyRegistered}
}

// NewInvalidCredentialsError は認証情報不一致の認証APIエラーを生成する。
// メールアドレスの存在有無を区別させないため、メッセージは常に同一とする。
func NewInvalidCredentialsError() *AuthAPIError {
	return &AuthAPIError{Message: MsgInvalidLoginCredentials}
}

// NewPasswordMismatchError はパスワード確認の不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwords do not match.",
		Category: "validation",
		Action:   "パスワードと確認用パスワードに同じ値を入力してください。",
	}
}

// NewInvalidRequestError はリクエスト形式の不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの形式が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエストの内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewCounterNotFoundError はカウンター行が見つからない場合のエラーを生成する。
func NewCounterNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeCounterNotFound,
		Message:  fmt.Sprintf("指定されたカウンターが見つかりません: %d", id),
		Category: "counter",
		Action:   "カウンターIDを確認してください。",
	}
}
