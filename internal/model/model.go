// Package model defines the domain types used across the application.
package model

import "time"

// UserStatus marks whether a user account is eligible for notifications.
type UserStatus string

// Supported user statuses.
const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User owns keywords and receives notifications.
// Credentials and roles belong to the API layer and are not modeled here.
type User struct {
	ID             int64
	Email          string
	Nickname       string
	Status         UserStatus
	TelegramChatID *int64
	CreatedAt      time.Time
}

// Keyword is a user's saved marketplace search.
// (UserID, Text, SiteCode) is unique; Active is the sole scrape gate.
type Keyword struct {
	ID            int64
	UserID        int64
	Text          string
	SiteCode      string
	Active        bool
	MinPrice      *int64
	MaxPrice      *int64
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// ScrapedItem is one deduplicated marketplace listing.
// Both (SiteCode, SourceID) and URL are unique in storage.
type ScrapedItem struct {
	ID             int64
	SiteCode       string
	SourceID       string
	Title          string
	Price          *int64
	URL            string
	ImageURL       string
	Location       string
	PostedAtSource *time.Time
	ScrapedAt      time.Time
	Notified       bool
}

// NotificationStatus is the delivery state of a notification.
type NotificationStatus string

// Notification lifecycle states.
const (
	StatusPending NotificationStatus = "PENDING"
	StatusSent    NotificationStatus = "SENT"
	StatusFailed  NotificationStatus = "FAILED"
	StatusRead    NotificationStatus = "READ"
)

// NotificationChannel identifies the delivery transport.
type NotificationChannel string

// Supported delivery channels.
const (
	ChannelTelegram NotificationChannel = "TELEGRAM"
	ChannelLog      NotificationChannel = "LOG"
)

// Notification records one "item X matched keyword Y for user Z" delivery.
type Notification struct {
	ID           int64
	UserID       int64
	ItemID       int64
	KeywordID    int64
	Channel      NotificationChannel
	Status       NotificationStatus
	AttemptCount int
	SentAt       *time.Time
	ErrorMessage string
	CreatedAt    time.Time
}
