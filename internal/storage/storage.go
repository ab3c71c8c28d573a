// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"github.com/krw82/usedItem/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateKeyword(ctx context.Context, k *model.Keyword) error
	GetKeyword(ctx context.Context, id int64) (*model.Keyword, error)
	ListKeywords(ctx context.Context, userID int64) ([]model.Keyword, error)
	ListActiveKeywords(ctx context.Context) ([]model.Keyword, error)
	ListActiveKeywordsBySite(ctx context.Context, siteCode string) ([]model.Keyword, error)
	UpdateKeywordLastChecked(ctx context.Context, id int64, t time.Time) error
	DeleteKeyword(ctx context.Context, id int64) error

	InsertItemIfAbsent(ctx context.Context, item *model.ScrapedItem) (bool, error)
	InsertItemsIfAbsent(ctx context.Context, items []model.ScrapedItem) ([]model.ScrapedItem, error)
	GetItem(ctx context.Context, id int64) (*model.ScrapedItem, error)
	ListItems(ctx context.Context, limit int) ([]model.ScrapedItem, error)
	ListUnnotifiedItems(ctx context.Context) ([]model.ScrapedItem, error)
	MarkItemNotified(ctx context.Context, id int64) error

	CreateNotificationIfAbsent(ctx context.Context, n *model.Notification) (bool, error)
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkNotificationFailed(ctx context.Context, id int64, errMsg string) error
	MarkNotificationRead(ctx context.Context, id int64) error

	Close() error
}
