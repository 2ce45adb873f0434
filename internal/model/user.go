// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはメール/パスワード登録ユーザーのみ保持し、
// OAuth経由で作成されたユーザーでは空文字列になる。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// 期限切れのセッションは存在しないものとして扱う。
type Session struct {
	ID        string
	UserID    string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserData はアプリケーションレベルのユーザーレコードを表す。
// ユーザーの初回ログイン時に遅延作成される（counter = 0）。
// user_idにはUNIQUE制約があり、ユーザーごとに高々1行となる。
type UserData struct {
	ID        int64
	UserID    string
	Email     string
	Counter   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GlobalCounter は全訪問者に共有されるグローバルカウンター行を表す。
// public_tableのid = 0の既知の1行に対応する。
type GlobalCounter struct {
	ID    int64
	Value int64
}
