// Package notify turns newly ingested items into notification records and
// drives their delivery state machine.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/krw82/usedItem/internal/model"
)

// Deliverer sends one notification message over a concrete channel.
type Deliverer interface {
	Deliver(ctx context.Context, user model.User, keyword model.Keyword, item model.ScrapedItem) error
}

// LogDeliverer writes notifications to the log. It is the default channel
// when no external transport is configured.
type LogDeliverer struct {
	log *slog.Logger
}

// NewLogDeliverer creates a LogDeliverer.
func NewLogDeliverer(log *slog.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

// Deliver implements Deliverer.
func (d *LogDeliverer) Deliver(_ context.Context, user model.User, keyword model.Keyword, item model.ScrapedItem) error {
	d.log.Info("notification",
		"user_id", user.ID, "keyword", keyword.Text, "site", item.SiteCode,
		"title", item.Title, "url", item.URL)
	return nil
}

// FormatNotification formats a matched item as a notification message.
func FormatNotification(keyword model.Keyword, item model.ScrapedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n\n", item.SiteCode, keyword.Text)
	b.WriteString(item.Title)
	if item.Price != nil {
		fmt.Fprintf(&b, "\n%d원", *item.Price)
	}
	if item.Location != "" {
		b.WriteString("\n")
		b.WriteString(item.Location)
	}
	if item.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(item.URL)
	}
	return b.String()
}
