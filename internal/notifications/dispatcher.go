package notifications

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"golang.org/x/sync/errgroup"
)

// DeliverFunc runs the whole pipeline of one recipient and reports its
// outcome. It must not return early for other recipients' failures.
type DeliverFunc func(ctx context.Context, r notifications.Recipient) notifications.DeliveryResult

// Dispatcher runs one DeliverFunc per recipient concurrently.
type Dispatcher struct {
	// MaxConcurrency caps in-flight deliveries. Zero means no limit.
	MaxConcurrency int

	Logger hclog.Logger
}

// Dispatch delivers to every recipient and returns one result per recipient,
// in recipient order. A failure or panic in one delivery never cancels the
// others, and nothing is retried.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	recipients []notifications.Recipient,
	deliver DeliverFunc,
) []notifications.DeliveryResult {
	log := d.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	results := make([]notifications.DeliveryResult, len(recipients))

	var eg errgroup.Group
	if d.MaxConcurrency > 0 {
		eg.SetLimit(d.MaxConcurrency)
	}
	for i := range recipients {
		eg.Go(func() error {
			r := recipients[i]
			defer func() {
				if p := recover(); p != nil {
					log.Error("panic delivering notification", "user_id", r.UserID, "panic", p)
					results[i] = notifications.DeliveryResult{
						UserID: r.UserID,
						Email:  r.Email,
						Error:  fmt.Sprintf("panic: %v", p),
					}
				}
			}()
			results[i] = deliver(ctx, r)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
