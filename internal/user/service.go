// Package user はユーザーレコードの遅延プロビジョニングを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/countboard/internal/model"
	"github.com/hitoshi/countboard/internal/repository"
)

// ProvisionObserver はレコード作成の通知先。メトリクス用。
type ProvisionObserver interface {
	RecordUserRecordProvisioned()
}

// Service はユーザーレコード管理のサービス層。
// 認証済みユーザーに対応するuser_data行の存在を保証する。
type Service struct {
	userDataRepo repository.UserDataRepository
	observer     ProvisionObserver
}

// NewService はServiceの新しいインスタンスを生成する。observerはnilでもよい。
func NewService(userDataRepo repository.UserDataRepository, observer ProvisionObserver) *Service {
	return &Service{
		userDataRepo: userDataRepo,
		observer:     observer,
	}
}

// EnsureUserRecord はセッションに対応するユーザーレコードの存在を保証する。
// セッションがnilの場合は書き込みを行わずnilを返す（未ログインは正常系）。
// レコードが存在しない場合はcounter = 0で作成する。
// 作成はuser_idのUNIQUE制約に基づくINSERT ... ON CONFLICT DO NOTHINGのため、
// 同一セッションで連続・同時に呼ばれても高々1行しか作成されない（冪等）。
func (s *Service) EnsureUserRecord(ctx context.Context, session *model.Session) (*model.UserData, error) {
	if session == nil {
		return nil, nil
	}

	// 「見つからない」はエラーではなく作成のトリガー
	existing, err := s.userDataRepo.FindByUserID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user record: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.userDataRepo.InsertIfAbsent(ctx, session.UserID, session.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to provision user record: %w", err)
	}
	if created {
		slog.Info("user record provisioned",
			slog.String("user_id", session.UserID),
		)
		if s.observer != nil {
			s.observer.RecordUserRecordProvisioned()
		}
	}

	// 作成直後（または同時実行の別リクエストが作成した後）の再取得。
	// ここでnilが返るのは行が直後に消された場合のみで、ページ描画は継続させる。
	record, err := s.userDataRepo.FindByUserID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provisioned user record: %w", err)
	}

	return record, nil
}
