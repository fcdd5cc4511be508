package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/services"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext adds an authenticated user to the request context
func WithUserContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc             func(ctx context.Context, email, password, identity string) (*services.AuthResponse, error)
	MasterLoginFunc       func(ctx context.Context, email, p1, p2, identity string) (*services.AuthResponse, error)
	MeFunc                func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateCredentialsFunc func(ctx context.Context, userID string, req services.CredentialsUpdate, identity string) (*services.AuthResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, identity string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, identity)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) MasterLogin(ctx context.Context, email, p1, p2, identity string) (*services.AuthResponse, error) {
	if m.MasterLoginFunc != nil {
		return m.MasterLoginFunc(ctx, email, p1, p2, identity)
	}
	return nil, models.ErrMasterDisabled
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, userID)
	}
	return nil, models.ErrUserNotFound
}

func (m *MockAuthService) UpdateCredentials(ctx context.Context, userID string, req services.CredentialsUpdate, identity string) (*services.AuthResponse, error) {
	if m.UpdateCredentialsFunc != nil {
		return m.UpdateCredentialsFunc(ctx, userID, req, identity)
	}
	return nil, models.ErrUnauthorized
}

// MockSubmissionService implements SubmissionServiceInterface for testing
type MockSubmissionService struct {
	SubmitContactFunc     func(ctx context.Context, in services.ContactInput, identity string) (*models.Submission, error)
	SubmitApplicationFunc func(ctx context.Context, in services.ApplicationInput, identity string) (*models.Submission, error)
	SubmitTrialLessonFunc func(ctx context.Context, in services.TrialLessonInput, identity string) (*models.Submission, error)
	ListFunc              func(ctx context.Context, submissionType string) ([]*models.Submission, error)
	MarkReadFunc          func(ctx context.Context, id string) error
	DeleteFunc            func(ctx context.Context, id string) error
}

func (m *MockSubmissionService) SubmitContact(ctx context.Context, in services.ContactInput, identity string) (*models.Submission, error) {
	if m.SubmitContactFunc != nil {
		return m.SubmitContactFunc(ctx, in, identity)
	}
	return &models.Submission{ID: "submission-1", Type: models.SubmissionContact}, nil
}

func (m *MockSubmissionService) SubmitApplication(ctx context.Context, in services.ApplicationInput, identity string) (*models.Submission, error) {
	if m.SubmitApplicationFunc != nil {
		return m.SubmitApplicationFunc(ctx, in, identity)
	}
	return &models.Submission{ID: "submission-1", Type: models.SubmissionApplication}, nil
}

func (m *MockSubmissionService) SubmitTrialLesson(ctx context.Context, in services.TrialLessonInput, identity string) (*models.Submission, error) {
	if m.SubmitTrialLessonFunc != nil {
		return m.SubmitTrialLessonFunc(ctx, in, identity)
	}
	return &models.Submission{ID: "submission-1", Type: models.SubmissionTrialLesson}, nil
}

func (m *MockSubmissionService) List(ctx context.Context, submissionType string) ([]*models.Submission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, submissionType)
	}
	return []*models.Submission{}, nil
}

func (m *MockSubmissionService) MarkRead(ctx context.Context, id string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}

func (m *MockSubmissionService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAnalyticsService implements AnalyticsServiceInterface for testing
type MockAnalyticsService struct {
	TrackPageViewFunc func(ctx context.Context, in services.PageViewInput, identity string) (bool, error)
	SummaryFunc       func(ctx context.Context) (*models.AnalyticsSummary, error)
}

func (m *MockAnalyticsService) TrackPageView(ctx context.Context, in services.PageViewInput, identity string) (bool, error) {
	if m.TrackPageViewFunc != nil {
		return m.TrackPageViewFunc(ctx, in, identity)
	}
	return true, nil
}

func (m *MockAnalyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &models.AnalyticsSummary{}, nil
}
