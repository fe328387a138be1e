package courses

import (
	"context"
	"errors"

	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

// Students resolves the enrollments stored on a student's account.
type Students interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Service struct {
	repo     Repository
	students Students
}

func NewService(repo Repository, students Students) *Service {
	return &Service{repo: repo, students: students}
}

func (s *Service) List(ctx context.Context) ([]*Course, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	return s.repo.Get(ctx, id)
}

// Save creates or replaces a catalogue entry.
func (s *Service) Save(ctx context.Context, c *Course) error {
	if c.ID == "" {
		c.ID = c.Code
	}
	if c.ID == "" || c.Name == "" {
		return errors.New("course needs a code and a name")
	}
	return s.repo.Upsert(ctx, c)
}

// StudentCourses returns the courses the student is enrolled in. Enrollments
// naming a course missing from the catalogue are skipped.
func (s *Service) StudentCourses(ctx context.Context, studentID string) ([]*Course, error) {
	u, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]*Course, 0, len(u.Courses))
	for _, id := range u.Courses {
		c, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			logger.Warnf("student %s enrolled in unknown course %s", studentID, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// IsEnrolled reports whether the student takes an existing course.
func (s *Service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, err := s.repo.Get(ctx, courseID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	u, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	return u.EnrolledIn(courseID), nil
}
