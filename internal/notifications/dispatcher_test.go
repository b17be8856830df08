package notifications

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecipients(n int) []notifications.Recipient {
	rs := make([]notifications.Recipient, n)
	for i := range rs {
		rs[i] = notifications.Recipient{UserID: fmt.Sprintf("u%d", i)}
	}
	return rs
}

func TestDispatcher_ResultsInRecipientOrder(t *testing.T) {
	d := &Dispatcher{}
	rs := makeRecipients(5)

	results := d.Dispatch(context.Background(), rs, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		// Later recipients finish first.
		var idx int
		_, _ = fmt.Sscanf(r.UserID, "u%d", &idx)
		time.Sleep(time.Duration(5-idx) * 5 * time.Millisecond)
		return notifications.DeliveryResult{UserID: r.UserID, Success: true}
	})

	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("u%d", i), res.UserID)
	}
}

func TestDispatcher_Concurrent(t *testing.T) {
	d := &Dispatcher{}
	const n = 10
	rs := makeRecipients(n)

	// Each delivery waits until every delivery has started, so only a
	// concurrent dispatcher reaches n deliveries in flight.
	var started, inFlight, peak int32
	all := make(chan struct{})
	d.Dispatch(context.Background(), rs, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		if atomic.AddInt32(&started, 1) == n {
			close(all)
		}
		select {
		case <-all:
		case <-time.After(time.Second):
		}
		atomic.AddInt32(&inFlight, -1)
		return notifications.DeliveryResult{UserID: r.UserID, Success: true}
	})
	assert.Equal(t, int32(n), atomic.LoadInt32(&peak))
}

func TestDispatcher_MaxConcurrency(t *testing.T) {
	d := &Dispatcher{MaxConcurrency: 2}
	rs := makeRecipients(8)

	var inFlight, peak int32
	d.Dispatch(context.Background(), rs, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return notifications.DeliveryResult{UserID: r.UserID, Success: true}
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDispatcher_FailureDoesNotStopSiblings(t *testing.T) {
	d := &Dispatcher{}
	rs := makeRecipients(3)

	results := d.Dispatch(context.Background(), rs, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		switch r.UserID {
		case "u1":
			panic("template blew up")
		case "u2":
			// Siblings must not see a cancelled context.
			time.Sleep(20 * time.Millisecond)
			if ctx.Err() != nil {
				return notifications.DeliveryResult{UserID: r.UserID, Error: ctx.Err().Error()}
			}
		}
		return notifications.DeliveryResult{UserID: r.UserID, Success: true}
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "u1", results[1].UserID)
	assert.Contains(t, results[1].Error, "panic: template blew up")
	assert.True(t, results[2].Success)
}

func TestDispatcher_Empty(t *testing.T) {
	d := &Dispatcher{}
	results := d.Dispatch(context.Background(), nil, func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult {
		t.Fatal("deliver called without recipients")
		return notifications.DeliveryResult{}
	})
	assert.Empty(t, results)
}
