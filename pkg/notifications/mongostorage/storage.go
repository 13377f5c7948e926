package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/livenotify/pkg/notifications"
)

// DefaultCollection is the collection Storage uses unless WithCollection says otherwise.
const DefaultCollection = "notifications"

// Storage is a MongoDB notifications.Storage.
type Storage struct {
	coll *mongo.Collection
}

var _ notifications.Storage = (*Storage)(nil)

// Option configures a Storage.
type Option func(*storageOptions)

type storageOptions struct {
	collection string
}

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(o *storageOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// New returns a Storage over db. Call EnsureIndexes once at startup.
func New(db *mongo.Database, opts ...Option) *Storage {
	o := storageOptions{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&o)
	}
	return &Storage{coll: db.Collection(o.collection)}
}

// EnsureIndexes creates the unique (user_id, id) key and the feed indexes.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetName("user_id_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("user_feed"),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_unread").
				SetPartialFilterExpression(bson.D{{Key: "is_read", Value: false}}),
		},
	})
	if err != nil {
		return fmt.Errorf("mongostorage: ensure indexes: %w", err)
	}
	return nil
}

type document struct {
	OID       bson.ObjectID `bson:"_id"`
	UserID    string        `bson:"user_id"`
	ID        string        `bson:"id"`
	Type      string        `bson:"type"`
	Title     string        `bson:"title"`
	Message   string        `bson:"message"`
	Role      string        `bson:"role,omitempty"`
	IsRead    bool          `bson:"is_read"`
	ReadAt    *time.Time    `bson:"read_at,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
}

func toDocument(n notifications.Notification) document {
	return document{
		OID:       bson.NewObjectID(),
		UserID:    n.UserID,
		ID:        string(n.ID),
		Type:      n.Type.String(),
		Title:     n.Title,
		Message:   n.Message,
		Role:      n.Role,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (d document) notification() notifications.Notification {
	return notifications.Notification{
		ID:        notifications.ID(d.ID),
		Type:      notifications.ParseType(d.Type),
		Title:     d.Title,
		Message:   d.Message,
		CreatedAt: d.CreatedAt,
		IsRead:    d.IsRead,
		UserID:    d.UserID,
		Role:      d.Role,
		ReadAt:    d.ReadAt,
	}
}

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

	_, err := s.coll.InsertOne(ctx, toDocument(n))
	if mongo.IsDuplicateKeyError(err) {
		return notifications.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("mongostorage: create: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, userID string, id notifications.ID) (*notifications.Notification, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}, {Key: "id", Value: string(id)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongostorage: get: %w", err)
	}
	n := doc.notification()
	return &n, nil
}

func (s *Storage) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	cur, err := s.coll.Find(ctx, listFilter(userID, opts), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("mongostorage: list: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostorage: list: %w", err)
	}
	items := make([]notifications.Notification, len(docs))
	for i, d := range docs {
		items[i] = d.notification()
	}
	return items, nil
}

func (s *Storage) MarkRead(ctx context.Context, userID string, ids ...notifications.ID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.D{
			{Key: "user_id", Value: userID},
			{Key: "id", Value: bson.D{{Key: "$in", Value: idStrings(ids)}}},
			{Key: "is_read", Value: false},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_read", Value: true},
			{Key: "read_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongostorage: mark read: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, userID string, ids ...notifications.ID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.DeleteMany(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "id", Value: bson.D{{Key: "$in", Value: idStrings(ids)}}},
	})
	if err != nil {
		return fmt.Errorf("mongostorage: delete: %w", err)
	}
	return nil
}

func (s *Storage) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "is_read", Value: false},
	})
	if err != nil {
		return 0, fmt.Errorf("mongostorage: count unread: %w", err)
	}
	return int(n), nil
}

func listFilter(userID string, opts notifications.ListOptions) bson.D {
	filter := bson.D{{Key: "user_id", Value: userID}}
	if opts.OnlyUnread {
		filter = append(filter, bson.E{Key: "is_read", Value: false})
	}
	if len(opts.Types) > 0 {
		types := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = t.String()
		}
		filter = append(filter, bson.E{Key: "type", Value: bson.D{{Key: "$in", Value: types}}})
	}
	if opts.Since != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: *opts.Since}}})
	}
	return filter
}

// findOptions sorts newest first; ObjectIDs grow with insertion, so equal
// timestamps keep insertion order.
func findOptions(opts notifications.ListOptions) *options.FindOptionsBuilder {
	fo := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	return fo
}

func idStrings(ids []notifications.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
