package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/sanitize"
	"github.com/BradenHooton/novatech/pkg/clock"
)

// SubmissionListLimit caps how many submissions a list call returns
const SubmissionListLimit = 200

// SubmissionRepository stores lead-capture form entries
type SubmissionRepository interface {
	Create(ctx context.Context, s *models.Submission) (*models.Submission, error)
	List(ctx context.Context, submissionType string, limit int) ([]*models.Submission, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ContactInput is the public contact form
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// ApplicationInput is the public course application form
type ApplicationInput struct {
	Name       string
	Email      string
	Phone      string
	CourseID   string
	CourseName string
	Message    string
}

// TrialLessonInput is the public trial lesson request form
type TrialLessonInput struct {
	FullName string
	Contact  string
	Course   string
}

// SubmissionService sanitizes and stores form submissions
type SubmissionService struct {
	repo     SubmissionRepository
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// NewSubmissionService creates a new SubmissionService. A nil notifier disables notifications.
func NewSubmissionService(repo SubmissionRepository, notifier Notifier, clk clock.Clock, logger *slog.Logger) *SubmissionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &SubmissionService{
		repo:     repo,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// SubmitContact stores a contact form entry and notifies the office
func (s *SubmissionService) SubmitContact(ctx context.Context, in ContactInput, identity string) (*models.Submission, error) {
	email, err := sanitize.NormalizeEmail(in.Email)
	if err != nil {
		return nil, sanitize.NewFieldError("email", err)
	}

	data := map[string]string{
		"name":    sanitize.EscapeText(in.Name, 100),
		"email":   email,
		"message": sanitize.EscapeText(in.Message, 5000),
	}
	if err := requireFields(data, "name", "message"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Phone) != "" {
		phone, err := sanitize.NormalizePhone(in.Phone)
		if err != nil {
			return nil, sanitize.NewFieldError("phone", err)
		}
		data["phone"] = phone
	}

	return s.store(ctx, models.SubmissionContact, data, identity)
}

// SubmitApplication stores a course application
func (s *SubmissionService) SubmitApplication(ctx context.Context, in ApplicationInput, identity string) (*models.Submission, error) {
	email, err := sanitize.NormalizeEmail(in.Email)
	if err != nil {
		return nil, sanitize.NewFieldError("email", err)
	}
	phone, err := sanitize.NormalizePhone(in.Phone)
	if err != nil {
		return nil, sanitize.NewFieldError("phone", err)
	}

	data := map[string]string{
		"name":        sanitize.EscapeText(in.Name, 200),
		"email":       email,
		"phone":       phone,
		"course_id":   sanitize.EscapeText(in.CourseID, 100),
		"course_name": sanitize.EscapeText(in.CourseName, 200),
	}
	if err := requireFields(data, "name", "course_id", "course_name"); err != nil {
		return nil, err
	}
	if msg := sanitize.EscapeText(in.Message, 5000); msg != "" {
		data["message"] = msg
	}

	return s.store(ctx, models.SubmissionApplication, data, identity)
}

// SubmitTrialLesson stores a trial lesson request
func (s *SubmissionService) SubmitTrialLesson(ctx context.Context, in TrialLessonInput, identity string) (*models.Submission, error) {
	data := map[string]string{
		"full_name": sanitize.EscapeText(in.FullName, 100),
		"contact":   sanitize.EscapeText(in.Contact, 200),
		"course":    sanitize.EscapeText(in.Course, 200),
	}
	if err := requireFields(data, "full_name", "contact", "course"); err != nil {
		return nil, err
	}

	return s.store(ctx, models.SubmissionTrialLesson, data, identity)
}

// List returns the newest submissions, optionally filtered by type
func (s *SubmissionService) List(ctx context.Context, submissionType string) ([]*models.Submission, error) {
	switch submissionType {
	case "", models.SubmissionContact, models.SubmissionApplication, models.SubmissionTrialLesson:
	default:
		return nil, sanitize.NewFieldError("type", fmt.Errorf("unknown submission type %q", submissionType))
	}

	items, err := s.repo.List(ctx, submissionType, SubmissionListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return items, nil
}

// MarkRead flags a submission as read
func (s *SubmissionService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// Delete removes a submission
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *SubmissionService) store(ctx context.Context, submissionType string, data map[string]string, identity string) (*models.Submission, error) {
	created, err := s.repo.Create(ctx, &models.Submission{
		Type:      submissionType,
		Data:      data,
		IPHash:    HashIdentity(identity),
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	s.logger.Info("submission received",
		slog.String("type", submissionType),
		slog.String("submission_id", created.ID))

	if err := s.notifier.NotifySubmission(ctx, created); err != nil {
		// the submission is already stored, a lost notification is not fatal
		s.logger.Warn("failed to send submission notification",
			slog.String("submission_id", created.ID),
			slog.Any("error", err))
	}

	return created, nil
}

// HashIdentity returns a short sha256 digest of a client identity for abuse tracking
func HashIdentity(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])[:16]
}

func requireFields(data map[string]string, fields ...string) error {
	for _, f := range fields {
		if data[f] == "" {
			return sanitize.NewFieldError(f, sanitize.ErrRequired)
		}
	}
	return nil
}
