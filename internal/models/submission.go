package models

import "time"

const (
	SubmissionContact     = "contact"
	SubmissionApplication = "application"
	SubmissionTrialLesson = "trial_lesson"
)

// Submission is a lead-capture form entry. Data holds the sanitized form fields.
type Submission struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data"`
	IPHash    string            `json:"-"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}
