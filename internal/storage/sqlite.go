package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/krw82/usedItem/internal/model"
	"github.com/krw82/usedItem/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	// Cascades are handled explicitly in DeleteUser; the pragma would not
	// survive the connection pool anyway.
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and populates its ID and CreatedAt.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Format(timeLayout)
	if u.Status == "" {
		u.Status = model.UserActive
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, nickname, status, telegram_chat_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.Nickname, string(u.Status), u.TelegramChatID, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	u.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUser returns a single user by its ID.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, nickname, status, telegram_chat_id, created_at
		 FROM users WHERE id = ?`, id,
	)
	var u model.User
	var status string
	var chatID sql.NullInt64
	var created sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Nickname, &status, &chatID, &created); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Status = model.UserStatus(status)
	if chatID.Valid {
		u.TelegramChatID = &chatID.Int64
	}
	if created.Valid {
		u.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &u, nil
}

// DeleteUser removes a user and its keywords. Notifications are kept for the
// audit trail.
func (s *SQLite) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM keywords WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete keywords: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return tx.Commit()
}

// CreateKeyword inserts a new keyword and populates its ID and CreatedAt.
// A duplicate (user, text, site) violates the unique index and surfaces as an error.
func (s *SQLite) CreateKeyword(ctx context.Context, k *model.Keyword) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO keywords (user_id, keyword_text, site_code, is_active, min_price, max_price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.UserID, k.Text, k.SiteCode, boolToInt(k.Active), k.MinPrice, k.MaxPrice, now,
	)
	if err != nil {
		return fmt.Errorf("insert keyword: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	k.ID = id
	k.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

const keywordColumns = `id, user_id, keyword_text, site_code, is_active, min_price, max_price, last_checked_at, created_at, updated_at`

// GetKeyword returns a single keyword by its ID.
func (s *SQLite) GetKeyword(ctx context.Context, id int64) (*model.Keyword, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE id = ?`, id,
	)
	return scanKeyword(row)
}

// ListKeywords returns all keywords belonging to the given user.
func (s *SQLite) ListKeywords(ctx context.Context, userID int64) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanKeywords(rows)
}

// ListActiveKeywords returns every keyword with the active flag set.
func (s *SQLite) ListActiveKeywords(ctx context.Context) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query active keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanKeywords(rows)
}

// ListActiveKeywordsBySite returns active keywords targeting the given site.
func (s *SQLite) ListActiveKeywordsBySite(ctx context.Context, siteCode string) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE is_active = 1 AND site_code = ? ORDER BY id`,
		siteCode,
	)
	if err != nil {
		return nil, fmt.Errorf("query keywords by site: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanKeywords(rows)
}

// UpdateKeywordLastChecked stamps the last scrape attempt time for a keyword.
func (s *SQLite) UpdateKeywordLastChecked(ctx context.Context, id int64, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE keywords SET last_checked_at = ?, updated_at = ? WHERE id = ?`,
		t.UTC().Format(timeLayout), time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update keyword last checked: %w", err)
	}
	return nil
}

// DeleteKeyword removes a keyword by its ID.
func (s *SQLite) DeleteKeyword(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	return nil
}

// InsertItemIfAbsent stores an item unless it is already known by canonical
// URL or by (site, source id). It reports whether a row was inserted; a
// duplicate is a normal false outcome, not an error. The unique constraints
// make this safe under concurrent callers.
func (s *SQLite) InsertItemIfAbsent(ctx context.Context, item *model.ScrapedItem) (bool, error) {
	now := time.Now().UTC()
	var postedAt *string
	if item.PostedAtSource != nil {
		v := item.PostedAtSource.UTC().Format(timeLayout)
		postedAt = &v
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO scraped_items
		 (site_code, source_id, title, price, item_url, image_url, location, posted_at_source, scraped_at, is_notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		item.SiteCode, item.SourceID, item.Title, item.Price, item.URL,
		item.ImageURL, item.Location, postedAt, now.Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	item.ScrapedAt, _ = time.Parse(timeLayout, now.Format(timeLayout))
	return true, nil
}

// InsertItemsIfAbsent applies InsertItemIfAbsent to each item and returns the
// subset that was actually inserted. The batch is not atomic: an error midway
// returns the items inserted so far together with the error.
func (s *SQLite) InsertItemsIfAbsent(ctx context.Context, items []model.ScrapedItem) ([]model.ScrapedItem, error) {
	var inserted []model.ScrapedItem
	for i := range items {
		ok, err := s.InsertItemIfAbsent(ctx, &items[i])
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted = append(inserted, items[i])
		}
	}
	return inserted, nil
}

const itemColumns = `id, site_code, source_id, title, price, item_url, image_url, location, posted_at_source, scraped_at, is_notified`

// GetItem returns a single scraped item by its ID.
func (s *SQLite) GetItem(ctx context.Context, id int64) (*model.ScrapedItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM scraped_items WHERE id = ?`, id,
	)
	return scanItem(row)
}

// ListItems returns up to limit items, newest first.
func (s *SQLite) ListItems(ctx context.Context, limit int) ([]model.ScrapedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM scraped_items ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanItems(rows)
}

// ListUnnotifiedItems returns every item not yet run through a notification
// pass. The is_notified flag is the durable cursor: an item whose pass failed
// stays in this set until a pass completes for it, across runs and restarts.
func (s *SQLite) ListUnnotifiedItems(ctx context.Context) ([]model.ScrapedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM scraped_items WHERE is_notified = 0 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnotified items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanItems(rows)
}

// MarkItemNotified flags an item as handled by a notification pass.
func (s *SQLite) MarkItemNotified(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scraped_items SET is_notified = 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("mark item notified: %w", err)
	}
	return nil
}

// CreateNotificationIfAbsent inserts a PENDING notification unless one already
// exists for the same (item, keyword) pair, and reports whether a row was
// inserted. The existing row wins: a re-scanned item must not notify a user
// twice for the same match.
func (s *SQLite) CreateNotificationIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	if n.Status == "" {
		n.Status = model.StatusPending
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notifications (user_id, item_id, keyword_id, channel, status, attempt_count, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.UserID, n.ItemID, n.KeywordID, string(n.Channel), string(n.Status), now,
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt, _ = time.Parse(timeLayout, now)
	return true, nil
}

const notificationColumns = `id, user_id, item_id, keyword_id, channel, status, attempt_count, sent_at, error_message, created_at`

// GetNotification returns a single notification by its ID.
func (s *SQLite) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id,
	)
	return scanNotification(row)
}

// ListNotifications returns all notifications for the given user, newest first.
func (s *SQLite) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ns []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, *n)
	}
	return ns, rows.Err()
}

// MarkNotificationSent transitions a notification to SENT, stamping sent_at
// and clearing any previous error message.
func (s *SQLite) MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET status = ?, sent_at = ?, error_message = '' WHERE id = ?`,
		string(model.StatusSent), sentAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkNotificationFailed transitions a notification to FAILED, incrementing
// the attempt counter and recording the error.
func (s *SQLite) MarkNotificationFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications
		 SET status = ?, attempt_count = attempt_count + 1, error_message = ?
		 WHERE id = ?`,
		string(model.StatusFailed), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// MarkNotificationRead transitions a SENT notification to READ.
// Calling it on an already-READ notification is a no-op.
func (s *SQLite) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET status = ? WHERE id = ? AND status = ?`,
		string(model.StatusRead), id, string(model.StatusSent),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanKeyword(row scannable) (*model.Keyword, error) {
	var k model.Keyword
	var isActive int
	var minPrice, maxPrice sql.NullInt64
	var lastChecked, created, updated sql.NullString
	err := row.Scan(&k.ID, &k.UserID, &k.Text, &k.SiteCode, &isActive,
		&minPrice, &maxPrice, &lastChecked, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("scan keyword: %w", err)
	}
	k.Active = isActive == 1
	if minPrice.Valid {
		k.MinPrice = &minPrice.Int64
	}
	if maxPrice.Valid {
		k.MaxPrice = &maxPrice.Int64
	}
	if lastChecked.Valid {
		t, _ := time.Parse(timeLayout, lastChecked.String)
		k.LastCheckedAt = &t
	}
	if created.Valid {
		k.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	if updated.Valid {
		t, _ := time.Parse(timeLayout, updated.String)
		k.UpdatedAt = &t
	}
	return &k, nil
}

func scanKeywords(rows *sql.Rows) ([]model.Keyword, error) {
	var keywords []model.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, *k)
	}
	return keywords, rows.Err()
}

func scanItem(row scannable) (*model.ScrapedItem, error) {
	var it model.ScrapedItem
	var price sql.NullInt64
	var notified int
	var postedAt, scraped sql.NullString
	err := row.Scan(&it.ID, &it.SiteCode, &it.SourceID, &it.Title, &price,
		&it.URL, &it.ImageURL, &it.Location, &postedAt, &scraped, &notified)
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	if price.Valid {
		it.Price = &price.Int64
	}
	it.Notified = notified == 1
	if postedAt.Valid {
		t, _ := time.Parse(timeLayout, postedAt.String)
		it.PostedAtSource = &t
	}
	if scraped.Valid {
		it.ScrapedAt, _ = time.Parse(timeLayout, scraped.String)
	}
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]model.ScrapedItem, error) {
	var items []model.ScrapedItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func scanNotification(row scannable) (*model.Notification, error) {
	var n model.Notification
	var channel, status string
	var sentAt, created sql.NullString
	err := row.Scan(&n.ID, &n.UserID, &n.ItemID, &n.KeywordID, &channel,
		&status, &n.AttemptCount, &sentAt, &n.ErrorMessage, &created)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.Channel = model.NotificationChannel(channel)
	n.Status = model.NotificationStatus(status)
	if sentAt.Valid {
		t, _ := time.Parse(timeLayout, sentAt.String)
		n.SentAt = &t
	}
	if created.Valid {
		n.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &n, nil
}
