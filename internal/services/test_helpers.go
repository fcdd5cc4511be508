package services

import (
	"context"
	"time"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordHashFunc func(ctx context.Context, id, hash string) error
	UpdateEmailFunc        func(ctx context.Context, id, email string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, hash)
	}
	return nil
}

func (m *MockUserRepository) UpdateEmail(ctx context.Context, id, email string) error {
	if m.UpdateEmailFunc != nil {
		return m.UpdateEmailFunc(ctx, id, email)
	}
	return nil
}

// MockSubmissionRepository implements SubmissionRepository for testing
type MockSubmissionRepository struct {
	CreateFunc   func(ctx context.Context, s *models.Submission) (*models.Submission, error)
	ListFunc     func(ctx context.Context, submissionType string, limit int) ([]*models.Submission, error)
	MarkReadFunc func(ctx context.Context, id string) error
	DeleteFunc   func(ctx context.Context, id string) error
}

func (m *MockSubmissionRepository) Create(ctx context.Context, s *models.Submission) (*models.Submission, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	created := *s
	created.ID = "submission-1"
	return &created, nil
}

func (m *MockSubmissionRepository) List(ctx context.Context, submissionType string, limit int) ([]*models.Submission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, submissionType, limit)
	}
	return []*models.Submission{}, nil
}

func (m *MockSubmissionRepository) MarkRead(ctx context.Context, id string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}

func (m *MockSubmissionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPageViewRepository implements PageViewRepository for testing
type MockPageViewRepository struct {
	CreateFunc        func(ctx context.Context, v *models.PageView) error
	CountSinceFunc    func(ctx context.Context, since time.Time) (int, error)
	CountByColumnFunc func(ctx context.Context, column string) (map[string]int, error)
	TopPagesFunc      func(ctx context.Context, limit int) ([]models.PageCount, error)
}

func (m *MockPageViewRepository) Create(ctx context.Context, v *models.PageView) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, v)
	}
	return nil
}

func (m *MockPageViewRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, since)
	}
	return 0, nil
}

func (m *MockPageViewRepository) CountByColumn(ctx context.Context, column string) (map[string]int, error) {
	if m.CountByColumnFunc != nil {
		return m.CountByColumnFunc(ctx, column)
	}
	return map[string]int{}, nil
}

func (m *MockPageViewRepository) TopPages(ctx context.Context, limit int) ([]models.PageCount, error) {
	if m.TopPagesFunc != nil {
		return m.TopPagesFunc(ctx, limit)
	}
	return []models.PageCount{}, nil
}

// MockNotifier records the submissions it was asked to announce
type MockNotifier struct {
	Err  error
	Sent []*models.Submission
}

func (m *MockNotifier) NotifySubmission(ctx context.Context, s *models.Submission) error {
	m.Sent = append(m.Sent, s)
	return m.Err
}

// MockSESClient implements SESAPI for testing
type MockSESClient struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}
