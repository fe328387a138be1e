package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("feedback not found")

// Repository persists feedback. Listings are newest first.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	Get(ctx context.Context, id string) (*Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	// ListForUser returns everything the user sent or received.
	ListForUser(ctx context.Context, userID string) ([]*Feedback, error)
	ListUnread(ctx context.Context, receiverID string) ([]*Feedback, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

var _ Repository = (*MongoRepository)(nil)

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, f *Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Feedback, error) {
	var f Feedback
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *MongoRepository) Update(ctx context.Context, f *Feedback) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": f.ID}, f)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListForUser(ctx context.Context, userID string) ([]*Feedback, error) {
	return r.find(ctx, bson.M{"$or": bson.A{bson.M{"senderId": userID}, bson.M{"receiverId": userID}}})
}

func (r *MongoRepository) ListUnread(ctx context.Context, receiverID string) ([]*Feedback, error) {
	return r.find(ctx, bson.M{"receiverId": receiverID, "read": false})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]*Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Feedback{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
