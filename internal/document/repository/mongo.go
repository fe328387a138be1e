package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abodd44/hashdocker-document-hub/internal/document"
)

// MongoRepo implements a MongoDB-backed repository for documents keyed by _id.
type MongoRepo struct {
	col *mongo.Collection
}

var _ Repository = (*MongoRepo)(nil)

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isDraft", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// filterDoc translates a document.Filter into a Mongo query.
func filterDoc(f document.Filter) bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["userId"] = f.UserID
	}
	if f.CourseID != "" {
		q["courseId"] = f.CourseID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Drafts != nil {
		q["isDraft"] = *f.Drafts
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		q["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"userName": re},
			bson.M{"originalFileName": re},
		}
	}
	return q
}

func (m *MongoRepo) List(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := m.col.Find(ctx, filterDoc(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

// versionFilter matches d.Version; records written before versioning count as 0.
func versionFilter(id string, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "version": bson.M{"$in": bson.A{0, nil}}}
	}
	return bson.M{"_id": id, "version": version}
}

func (m *MongoRepo) Update(ctx context.Context, d *document.Document) error {
	next := d.Clone()
	next.Version = d.Version + 1
	next.UpdatedAt = time.Now().UTC()
	res, err := m.col.ReplaceOne(ctx, versionFilter(d.ID, d.Version), next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := m.col.CountDocuments(ctx, bson.M{"_id": d.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	d.Version, d.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (m *MongoRepo) SetConversion(ctx context.Context, id string, c document.Conversion) error {
	set := bson.M{"conversionStatus": c.Status}
	if c.PreviewKey != "" {
		set["previewKey"] = c.PreviewKey
		set["previewType"] = c.PreviewType
	}
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "fileKey": c.FileKey},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
