package realtime

import (
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/websocket"
)

// NewWebSocketHandler はカウンター更新を配信するWebSocketハンドラーを返す。
// 接続直後に現在のグローバルカウンター値を初期イベントとして送信し、
// 以降はHubに発行された更新イベントを順次プッシュする。
// クライアントからの受信データは読み捨て、切断検知のみに使用する。
func NewWebSocketHandler(hub *Hub) http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()

		events, cancel := hub.Subscribe()
		defer cancel()

		// 初期スナップショットを送信
		initial := Event{
			Type:          EventGlobalCounter,
			GlobalCounter: hub.GlobalCounterSnapshot(),
		}
		if err := websocket.JSON.Send(ws, initial); err != nil {
			slog.Warn("failed to send initial realtime event",
				slog.String("error", err.Error()),
			)
			return
		}

		// クライアント切断の検知用リーダー
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var discard string
				if err := websocket.Message.Receive(ws, &discard); err != nil {
					if err != io.EOF {
						slog.Debug("realtime client read ended",
							slog.String("error", err.Error()),
						)
					}
					return
				}
			}
		}()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := websocket.JSON.Send(ws, event); err != nil {
					slog.Debug("failed to push realtime event",
						slog.String("error", err.Error()),
					)
					return
				}
			case <-done:
				return
			}
		}
	})
}
