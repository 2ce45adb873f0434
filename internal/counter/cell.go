// Package counter はカウンター値の読み書きとリアクティブな状態コンテナを提供する。
package counter

import "sync"

// Cell は単一の値を保持するスレッドセーフな状態コンテナ。
// 取得・更新・変更通知の購読を提供する。
// モジュールレベルのシングルトンとしてではなく、配線時に明示的に生成して
// 呼び出しチェーンに渡して使用する。
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[int]chan T
	nextID int
}

// NewCell は初期値をスナップショットとして保持するCellを生成する。
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get は現在の値を返す。
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set は値を更新し、全購読者に新しい値を通知する。
// 購読者のバッファが満杯の場合、その購読者への通知はスキップされる。
// 値は最新状態のキャッシュであり、取りこぼしてもGetで追いつける。
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe は変更通知チャネルと購読解除関数を返す。
// bufferは通知チャネルのバッファサイズを指定する（最小1）。
// 購読解除関数は複数回呼んでも安全。
func (c *Cell[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan T, buffer)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// SubscriberCount は現在の購読者数を返す。テストおよびメトリクス用。
func (c *Cell[T]) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
