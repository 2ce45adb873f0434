package counter

import (
	"sync"
	"testing"
	"time"
)

func TestCell_GetReturnsInitialValue(t *testing.T) {
	cell := NewCell(int64(42))

	if got := cell.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestCell_SetUpdatesValue(t *testing.T) {
	cell := NewCell(int64(0))

	cell.Set(7)

	if got := cell.Get(); got != 7 {
		t.Errorf("Get() = %d, want 7", got)
	}
}

func TestCell_SubscribeReceivesUpdates(t *testing.T) {
	cell := NewCell(int64(0))

	ch, cancel := cell.Subscribe(4)
	defer cancel()

	cell.Set(1)
	cell.Set(2)

	select {
	case v := <-ch:
		if v != 1 {
			t.Errorf("first update = %d, want 1", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first update")
	}

	select {
	case v := <-ch:
		if v != 2 {
			t.Errorf("second update = %d, want 2", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second update")
	}
}

func TestCell_CancelRemovesSubscriber(t *testing.T) {
	cell := NewCell(int64(0))

	_, cancel := cell.Subscribe(1)
	if got := cell.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	cancel()
	if got := cell.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after cancel = %d, want 0", got)
	}

	// 購読解除関数は複数回呼んでも安全
	cancel()
}

func TestCell_FullSubscriberDoesNotBlockSet(t *testing.T) {
	cell := NewCell(int64(0))

	_, cancel := cell.Subscribe(1)
	defer cancel()

	// バッファ1のチャネルに対して2回連続で更新してもSetはブロックしない
	done := make(chan struct{})
	go func() {
		cell.Set(1)
		cell.Set(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Set blocked on a full subscriber channel")
	}

	// 取りこぼしてもGetで最新値に追いつける
	if got := cell.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
}

func TestCell_ConcurrentSetAndGet(t *testing.T) {
	cell := NewCell(int64(0))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(v int64) {
			defer wg.Done()
			cell.Set(v)
		}(int64(i))
		go func() {
			defer wg.Done()
			_ = cell.Get()
		}()
	}
	wg.Wait()
}
