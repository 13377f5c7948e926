package notifications

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	notifications map[string][]Notification // userID -> notifications
	mu            sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(notif.UserID, notif.ID) >= 0 {
		return ErrDuplicateID
	}
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], notif)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID string, id ID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(userID, id)
	if i < 0 {
		return nil, ErrNotificationNotFound
	}
	notif := s.notifications[userID][i]
	return &notif, nil
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]Notification, 0, len(s.notifications[userID]))
	for _, n := range s.notifications[userID] {
		if opts.OnlyUnread && n.IsRead {
			continue
		}
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, n.Type) {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	// newest first; insertion order breaks ties so equal timestamps stay stable
	slices.SortStableFunc(filtered, func(a, b Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	start := min(max(opts.Offset, 0), len(filtered))
	end := len(filtered)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, end)
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, ids ...ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := s.notifications[userID]
	for i := range notifications {
		if slices.Contains(ids, notifications[i].ID) {
			notifications[i].MarkAsRead()
		}
	}
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID string, ids ...ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications, exists := s.notifications[userID]
	if !exists {
		return nil
	}
	notifications = slices.DeleteFunc(notifications, func(n Notification) bool {
		return slices.Contains(ids, n.ID)
	})
	if len(notifications) == 0 {
		delete(s.notifications, userID)
		return nil
	}
	s.notifications[userID] = notifications
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

// indexOf must be called with s.mu held.
func (s *MemoryStorage) indexOf(userID string, id ID) int {
	return slices.IndexFunc(s.notifications[userID], func(n Notification) bool {
		return n.ID == id
	})
}
