package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/services"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SubmissionServiceInterface defines the interface for form submission logic
type SubmissionServiceInterface interface {
	SubmitContact(ctx context.Context, in services.ContactInput, identity string) (*models.Submission, error)
	SubmitApplication(ctx context.Context, in services.ApplicationInput, identity string) (*models.Submission, error)
	SubmitTrialLesson(ctx context.Context, in services.TrialLessonInput, identity string) (*models.Submission, error)
	List(ctx context.Context, submissionType string) ([]*models.Submission, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SubmissionHandler handles public lead forms and their admin inbox
type SubmissionHandler struct {
	service  SubmissionServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(service SubmissionServiceInterface, ipConfig *pkghttp.IPConfig) *SubmissionHandler {
	return &SubmissionHandler{service: service, ipConfig: ipConfig}
}

// ContactRequest is the public contact form body
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// ApplicationRequest is the public course application body
type ApplicationRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Message    string `json:"message,omitempty"`
}

// TrialLessonRequest is the public trial lesson body
type TrialLessonRequest struct {
	FullName string `json:"full_name"`
	Contact  string `json:"contact"`
	Course   string `json:"course"`
}

// SubmissionCreatedResponse acknowledges a stored submission
type SubmissionCreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// SubmitContact handles the contact form
// @Router /api/submissions/contact [post]
func (h *SubmissionHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SubmitContact(r.Context(), services.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}, pkghttp.ClientIdentity(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, SubmissionCreatedResponse{
		Message: "Thank you for contacting us. We will get back to you soon.",
		ID:      s.ID,
	})
}

// SubmitApplication handles the course application form
// @Router /api/submissions/application [post]
func (h *SubmissionHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req ApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SubmitApplication(r.Context(), services.ApplicationInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		CourseID:   req.CourseID,
		CourseName: req.CourseName,
		Message:    req.Message,
	}, pkghttp.ClientIdentity(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, SubmissionCreatedResponse{
		Message: "Application received. We will contact you shortly.",
		ID:      s.ID,
	})
}

// SubmitTrialLesson handles the trial lesson request form
// @Router /api/trial-lessons [post]
func (h *SubmissionHandler) SubmitTrialLesson(w http.ResponseWriter, r *http.Request) {
	var req TrialLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SubmitTrialLesson(r.Context(), services.TrialLessonInput{
		FullName: req.FullName,
		Contact:  req.Contact,
		Course:   req.Course,
	}, pkghttp.ClientIdentity(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, SubmissionCreatedResponse{
		Message: "Trial lesson request received.",
		ID:      s.ID,
	})
}

// List returns the submission inbox, optionally filtered with ?type=
// @Security BearerAuth
// @Router /api/submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, items)
}

// MarkRead flags a submission as read
// @Security BearerAuth
// @Router /api/submissions/{id}/read [put]
func (h *SubmissionHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
}

// Delete removes a submission
// @Security BearerAuth
// @Router /api/submissions/{id} [delete]
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
