// Command seed loads the demo accounts, courses, documents and feedback into
// the configured MongoDB and MinIO, then exits. It is a no-op when accounts exist.
package main

import (
	"context"
	"os"
	"time"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/abodd44/hashdocker-document-hub/internal/courses"
	"github.com/abodd44/hashdocker-document-hub/internal/database"
	"github.com/abodd44/hashdocker-document-hub/internal/document/repository"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/seed"
	"github.com/abodd44/hashdocker-document-hub/internal/storage"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required; the API server seeds its in-memory stores itself")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	var blobs storage.Store = storage.NewMemoryStorage()
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinIOStorage(ctx, storage.MinIOConfigFrom(cfg.Storage))
		if err != nil {
			logger.Fatalf("failed to initialize MinIO storage: %v", err)
		}
		blobs = ms
	} else {
		logger.Warn("MINIO_ENDPOINT not set; seeded documents will have no stored files")
	}

	userSvc := users.NewService(users.NewMongoUserRepository(db.Collection(database.UsersCollection)))
	seeded, err := seed.Run(ctx, seed.Deps{
		Users:     userSvc,
		Courses:   courses.NewService(courses.NewMongoRepository(db.Collection(database.CoursesCollection)), userSvc),
		Documents: repository.NewMongoRepo(db.Collection(database.DocumentsCollection)),
		Feedback:  feedback.NewMongoRepository(db.Collection(database.FeedbackCollection)),
		Blobs:     blobs,
	})
	if err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
	if !seeded {
		logger.Info("database already has accounts; nothing seeded")
		return
	}
	logger.Infof("seeded demo data into %s (student %s, admin %s)", cfg.MongoDB.Database, seed.StudentID, seed.AdminID)
}
