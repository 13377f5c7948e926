package pgstorage

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
	"github.com/dmitrymomot/livenotify/pkg/pg"
)

// DB is the subset of *pgxpool.Pool (and pgx.Tx) that Storage uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage is a PostgreSQL notifications.Storage. Apply Migrations first.
type Storage struct {
	db DB
}

var _ notifications.Storage = (*Storage)(nil)

// New returns a Storage over db.
func New(db DB) *Storage {
	return &Storage{db: db}
}

const selectColumns = `SELECT id, type, title, message, role, is_read, read_at, created_at, user_id FROM notifications`

func (s *Storage) Create(ctx context.Context, n notifications.Notification) error {
	if n.ID == "" {
		return notifications.ErrMissingID
	}
	if n.UserID == "" {
		return notifications.ErrMissingUserID
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (user_id, id, type, title, message, role, is_read, read_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.UserID, string(n.ID), n.Type.String(), n.Title, n.Message, n.Role, n.IsRead, n.ReadAt, n.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return notifications.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("pgstorage: create: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, userID string, id notifications.ID) (*notifications.Notification, error) {
	row := s.db.QueryRow(ctx, selectColumns+` WHERE user_id = $1 AND id = $2`, userID, string(id))
	n, err := scanNotification(row)
	if pg.IsNotFoundError(err) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstorage: get: %w", err)
	}
	return &n, nil
}

func (s *Storage) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	query, args := buildListQuery(userID, opts)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstorage: list: %w", err)
	}
	defer rows.Close()

	var items []notifications.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstorage: list: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstorage: list: %w", err)
	}
	return items, nil
}

func (s *Storage) MarkRead(ctx context.Context, userID string, ids ...notifications.ID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE user_id = $1 AND id = ANY($2) AND NOT is_read`,
		userID, idStrings(ids),
	)
	if err != nil {
		return fmt.Errorf("pgstorage: mark read: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, userID string, ids ...notifications.ID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND id = ANY($2)`,
		userID, idStrings(ids),
	)
	if err != nil {
		return fmt.Errorf("pgstorage: delete: %w", err)
	}
	return nil
}

func (s *Storage) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pgstorage: count unread: %w", err)
	}
	return n, nil
}

// buildListQuery renders List's filters. Ties on created_at keep insertion
// order, matching MemoryStorage.
func buildListQuery(userID string, opts notifications.ListOptions) (string, []any) {
	var b strings.Builder
	args := []any{userID}
	b.WriteString(selectColumns)
	b.WriteString(` WHERE user_id = $1`)

	if opts.OnlyUnread {
		b.WriteString(` AND NOT is_read`)
	}
	if len(opts.Types) > 0 {
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = t.String()
		}
		args = append(args, types)
		fmt.Fprintf(&b, ` AND type = ANY($%d)`, len(args))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		fmt.Fprintf(&b, ` AND created_at >= $%d`, len(args))
	}

	b.WriteString(` ORDER BY created_at DESC, seq`)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}
	return b.String(), args
}

func scanNotification(row pgx.Row) (notifications.Notification, error) {
	var (
		n   notifications.Notification
		id  string
		typ string
	)
	err := row.Scan(&id, &typ, &n.Title, &n.Message, &n.Role, &n.IsRead, &n.ReadAt, &n.CreatedAt, &n.UserID)
	if err != nil {
		return notifications.Notification{}, err
	}
	n.ID = notifications.ID(id)
	n.Type = notifications.ParseType(typ)
	return n, nil
}

func idStrings(ids []notifications.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
