package conversion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists conversion jobs.
type Store interface {
	Save(ctx context.Context, j *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	// Latest returns the most recent job of a document.
	Latest(ctx context.Context, docID string) (*Job, error)
	DeleteForDoc(ctx context.Context, docID string) error
}

// MongoStore keeps jobs in the conversion_jobs collection, upserted by jobId.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "jobId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "docId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoStore{col: col}
}

func (s *MongoStore) Save(ctx context.Context, j *Job) error {
	filter := bson.M{"jobId": j.JobID}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": j}, opts); err != nil {
		return fmt.Errorf("save conversion job: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.findOne(ctx, bson.M{"jobId": jobID}, nil)
}

func (s *MongoStore) Latest(ctx context.Context, docID string) (*Job, error) {
	return s.findOne(ctx, bson.M{"docId": docID}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*Job, error) {
	var j Job
	var res *mongo.SingleResult
	if opts != nil {
		res = s.col.FindOne(ctx, filter, opts)
	} else {
		res = s.col.FindOne(ctx, filter)
	}
	if err := res.Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (s *MongoStore) DeleteForDoc(ctx context.Context, docID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"docId": docID})
	return err
}

// MemoryStore keeps jobs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Save(ctx context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.JobID] = *j
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &j, nil
}

func (s *MemoryStore) Latest(ctx context.Context, docID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Job
	for _, j := range s.jobs {
		if j.DocID != docID {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			j := j
			latest = &j
		}
	}
	if latest == nil {
		return nil, ErrJobNotFound
	}
	return latest, nil
}

func (s *MemoryStore) DeleteForDoc(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if j.DocID == docID {
			delete(s.jobs, id)
		}
	}
	return nil
}

func newJob(id string, req Request) *Job {
	now := time.Now().UTC()
	return &Job{
		JobID:       id,
		DocID:       req.DocID,
		Status:      StatusQueued,
		FileKey:     req.FileKey,
		ContentType: req.ContentType,
		FileName:    req.FileName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
