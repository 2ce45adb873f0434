// Package realtime はカウンター更新のリアルタイム配信を提供する。
// counterパッケージの状態コンテナを購読し、接続中の全クライアントに
// WebSocketで変更をプッシュする。UI側ストアのライブ更新はこの層の責務であり、
// ページロード時の読み取りは特定時点のスナップショットのまま保たれる。
package realtime

import (
	"github.com/hitoshi/countboard/internal/counter"
	"github.com/hitoshi/countboard/internal/model"
)

// イベント種別
const (
	EventGlobalCounter = "global_counter"
	EventUserData      = "user_data"
)

// Event はクライアントに配信される更新イベント。
type Event struct {
	Type string `json:"type"`

	// Type == EventGlobalCounter の場合のみ有効
	GlobalCounter int64 `json:"global_counter,omitempty"`

	// Type == EventUserData の場合のみ有効
	UserDataID int64  `json:"user_data_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Counter    int64  `json:"counter,omitempty"`
}

// ClientObserver は接続クライアント数の増減の通知先。メトリクス用。
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub はカウンター更新イベントのファンアウトを行う。
// counter.Publisherを実装し、counterサービスからの更新を受け取る。
type Hub struct {
	events     *counter.Cell[Event]
	globalCell *counter.Cell[int64]
	observer   ClientObserver
}

// NewHub はHubを生成する。
// globalCellは起動時にスナップショットから初期化された状態コンテナを渡す。
// observerはnilでもよい。
func NewHub(globalCell *counter.Cell[int64], observer ClientObserver) *Hub {
	return &Hub{
		events:     counter.NewCell(Event{}),
		globalCell: globalCell,
		observer:   observer,
	}
}

// PublishGlobalCounter はグローバルカウンターの新しい値を全クライアントに配信する。
func (h *Hub) PublishGlobalCounter(value int64) {
	h.globalCell.Set(value)
	h.events.Set(Event{
		Type:          EventGlobalCounter,
		GlobalCounter: value,
	})
}

// PublishUserData はユーザーレコードの更新を全クライアントに配信する。
func (h *Hub) PublishUserData(data *model.UserData) {
	h.events.Set(Event{
		Type:       EventUserData,
		UserDataID: data.ID,
		UserID:     data.UserID,
		Counter:    data.Counter,
	})
}

// GlobalCounterSnapshot は配信済みの最新グローバルカウンター値を返す。
// 新規接続クライアントへの初期イベントに使用する。
func (h *Hub) GlobalCounterSnapshot() int64 {
	return h.globalCell.Get()
}

// Subscribe は更新イベントの購読を開始し、チャネルと購読解除関数を返す。
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch, cancel := h.events.Subscribe(16)

	if h.observer != nil {
		h.observer.ClientConnected()
	}

	unsubscribed := false
	return ch, func() {
		cancel()
		if h.observer != nil && !unsubscribed {
			unsubscribed = true
			h.observer.ClientDisconnected()
		}
	}
}

// compile-time interface check
var _ counter.Publisher = (*Hub)(nil)
