// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService は外部IdPから取得したプロフィール情報（表示名など）を
// 永続化前にサニタイズし、保存型XSSからユーザーを保護する。
// bluemondayのStrictPolicyにより、HTMLタグはすべて除去される。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール文字列のサニタイズ機能のインターフェースを定義する。
// OAuthコールバックでのユーザー作成時に使用される。
type ProfileSanitizerService interface {
	// SanitizeName は表示名をサニタイズして返す。
	// HTMLタグはすべて除去され、前後の空白はトリムされる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeName(name string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全タグ・全属性を除去する許可リストなしのポリシー。
func NewProfileSanitizer() ProfileSanitizerService {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は表示名をサニタイズして返す。
func (s *profileSanitizer) SanitizeName(name string) string {
	return strings.TrimSpace(s.policy.Sanitize(name))
}

// compile-time interface check
var _ ProfileSanitizerService = (*profileSanitizer)(nil)
