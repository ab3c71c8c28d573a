package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/krw82/usedItem/internal/model"
	"github.com/krw82/usedItem/internal/storage"
)

const defaultMaxAttempts = 3

// Dispatcher scans newly ingested items, creates notification records for
// matching keywords, and drives delivery attempts.
type Dispatcher struct {
	store       storage.Storage
	deliverer   Deliverer
	channel     model.NotificationChannel
	maxAttempts int
	backoff     time.Duration
	log         *slog.Logger
}

// NewDispatcher creates a Dispatcher for the given delivery channel.
func NewDispatcher(store storage.Storage, deliverer Deliverer, channel model.NotificationChannel, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		deliverer:   deliverer,
		channel:     channel,
		maxAttempts: defaultMaxAttempts,
		backoff:     500 * time.Millisecond,
		log:         log,
	}
}

// SetMaxAttempts overrides the per-notification delivery attempt budget.
func (d *Dispatcher) SetMaxAttempts(n int) {
	if n > 0 {
		d.maxAttempts = n
	}
}

// SetBackoff overrides the base delay between delivery attempts.
func (d *Dispatcher) SetBackoff(base time.Duration) {
	d.backoff = base
}

// Dispatch runs one notification pass over every un-notified item. Each item
// is matched against the active keywords of its site; matches get a PENDING
// notification and a delivery attempt. The item's notified flag is set when
// its pass completes, regardless of delivery outcome: retry lives at the
// notification level, never by re-scanning a completed item. An item whose
// pass could not complete keeps the flag clear and is re-scanned on the next
// pass; the (item, keyword) uniqueness of notifications makes that re-scan
// safe against duplicates.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	items, err := d.store.ListUnnotifiedItems(ctx)
	if err != nil {
		d.log.Error("list unnotified items", "error", err)
		return
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		d.processItem(ctx, item)
	}
}

func (d *Dispatcher) processItem(ctx context.Context, item model.ScrapedItem) {
	keywords, err := d.store.ListActiveKeywordsBySite(ctx, item.SiteCode)
	if err != nil {
		// Leave the item un-notified so the next pass picks it up.
		d.log.Error("list keywords for site", "site", item.SiteCode, "error", err)
		return
	}

	for _, kw := range keywords {
		if !Matches(item, kw) {
			continue
		}
		n := &model.Notification{
			UserID:    kw.UserID,
			ItemID:    item.ID,
			KeywordID: kw.ID,
			Channel:   d.channel,
		}
		created, err := d.store.CreateNotificationIfAbsent(ctx, n)
		if err != nil {
			d.log.Error("create notification", "item_id", item.ID, "keyword_id", kw.ID, "error", err)
			continue
		}
		if !created {
			// A previous pass already handled this match before failing to
			// mark the item; its notification carries the delivery outcome.
			continue
		}
		d.attemptDelivery(ctx, n, kw, item)
	}

	if err := d.store.MarkItemNotified(ctx, item.ID); err != nil {
		d.log.Error("mark item notified", "item_id", item.ID, "error", err)
	}
}

// Matches reports whether a keyword's constraints admit an item. Site codes
// must agree; a price window only matches items with an extractable price.
func Matches(item model.ScrapedItem, kw model.Keyword) bool {
	if item.SiteCode != kw.SiteCode {
		return false
	}
	if kw.MinPrice == nil && kw.MaxPrice == nil {
		return true
	}
	if item.Price == nil {
		return false
	}
	if kw.MinPrice != nil && *item.Price < *kw.MinPrice {
		return false
	}
	if kw.MaxPrice != nil && *item.Price > *kw.MaxPrice {
		return false
	}
	return true
}

func (d *Dispatcher) attemptDelivery(ctx context.Context, n *model.Notification, kw model.Keyword, item model.ScrapedItem) {
	user, err := d.store.GetUser(ctx, n.UserID)
	if err != nil {
		d.log.Error("load user", "user_id", n.UserID, "error", err)
		d.markFailed(ctx, n.ID, "load user: "+err.Error())
		return
	}
	if user.Status != model.UserActive {
		d.markFailed(ctx, n.ID, "user not active")
		return
	}

	b := retry.WithMaxRetries(uint64(d.maxAttempts-1), retry.NewExponential(d.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if derr := d.deliverer.Deliver(ctx, *user, kw, item); derr != nil {
			d.markFailed(ctx, n.ID, derr.Error())
			return retry.RetryableError(derr)
		}
		return nil
	})
	if err != nil {
		d.log.Warn("delivery failed after retry budget",
			"notification_id", n.ID, "attempts", d.maxAttempts, "error", err)
		return
	}

	if err := d.store.MarkNotificationSent(ctx, n.ID, time.Now().UTC()); err != nil {
		d.log.Error("mark notification sent", "notification_id", n.ID, "error", err)
	}
}

func (d *Dispatcher) markFailed(ctx context.Context, id int64, msg string) {
	if err := d.store.MarkNotificationFailed(ctx, id, msg); err != nil {
		d.log.Error("mark notification failed", "notification_id", id, "error", err)
	}
}
