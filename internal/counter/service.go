package counter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hitoshi/countboard/internal/model"
	"github.com/hitoshi/countboard/internal/repository"
)

// Publisher はカウンター更新の通知先インターフェース。
// realtimeパッケージのHubが実装する。nilの場合は通知しない。
type Publisher interface {
	// PublishGlobalCounter はグローバルカウンターの新しい値を通知する。
	PublishGlobalCounter(value int64)
	// PublishUserData はユーザーレコードの更新を通知する。
	PublishUserData(data *model.UserData)
}

// Service はカウンターのロードと更新のビジネスロジックを提供する。
// 各ロードはDBの特定時点の読み取りであり、ライブ更新の配信はPublisher側が担う。
type Service struct {
	userDataRepo repository.UserDataRepository
	publicRepo   repository.PublicTableRepository
	publisher    Publisher
}

// NewService はServiceを生成する。publisherはnilでもよい。
func NewService(
	userDataRepo repository.UserDataRepository,
	publicRepo repository.PublicTableRepository,
	publisher Publisher,
) *Service {
	return &Service{
		userDataRepo: userDataRepo,
		publicRepo:   publicRepo,
		publisher:    publisher,
	}
}

// LoadGlobalCounter はグローバルカウンターの現在値を返す。
// id = 0の行が存在しない場合は0を返す（行の欠如は正常系）。
func (s *Service) LoadGlobalCounter(ctx context.Context) (int64, error) {
	counter, err := s.publicRepo.FindGlobalCounter(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load global counter: %w", err)
	}
	if counter == nil {
		return 0, nil
	}
	return counter.Value, nil
}

// NewGlobalCounterCell はグローバルカウンターの現在値をスナップショットとして
// 読み取り、それを初期値とする状態コンテナを生成する（初期化ステップ）。
func (s *Service) NewGlobalCounterCell(ctx context.Context) (*Cell[int64], error) {
	value, err := s.LoadGlobalCounter(ctx)
	if err != nil {
		return nil, err
	}
	return NewCell(value), nil
}

// LoadPageUserData はuser_dataのidでユーザーレコードを返す。
// ログイン中のユーザーではなく、URLで指定された任意のプロフィールIDを引く。
// 見つからない場合はnilを返す。
func (s *Service) LoadPageUserData(ctx context.Context, id int64) (*model.UserData, error) {
	data, err := s.userDataRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load page user data: %w", err)
	}
	return data, nil
}

// ListUsers は全ユーザーレコードをid昇順で返す。
func (s *Service) ListUsers(ctx context.Context) ([]*model.UserData, error) {
	users, err := s.userDataRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// リポジトリ実装に依らず順序を保証する
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users, nil
}

// IncrementUserCounter は指定ユーザーのカウンターをアトミックに+1する。
// レコードが存在しない場合はAPIErrorを返す。
// 更新後のレコードはPublisherに通知される。
func (s *Service) IncrementUserCounter(ctx context.Context, userID string) (*model.UserData, error) {
	data, err := s.userDataRepo.IncrementCounter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment user counter: %w", err)
	}
	if data == nil {
		return nil, model.NewUserNotFoundError()
	}

	if s.publisher != nil {
		s.publisher.PublishUserData(data)
	}

	return data, nil
}

// IncrementGlobalCounter はグローバルカウンターをアトミックに+1し、更新後の値を返す。
// 更新後の値はPublisherに通知される。
func (s *Service) IncrementGlobalCounter(ctx context.Context) (int64, error) {
	value, err := s.publicRepo.IncrementGlobalCounter(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to increment global counter: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishGlobalCounter(value)
	}

	return value, nil
}
