package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/services"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
)

// AnalyticsServiceInterface defines the interface for page view tracking
type AnalyticsServiceInterface interface {
	TrackPageView(ctx context.Context, in services.PageViewInput, identity string) (bool, error)
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
}

// AnalyticsHandler handles page view ingestion and the dashboard summary
type AnalyticsHandler struct {
	service  AnalyticsServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service AnalyticsServiceInterface, ipConfig *pkghttp.IPConfig) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, ipConfig: ipConfig}
}

// PageViewRequest is reported by the site front end
type PageViewRequest struct {
	PagePath   string `json:"page_path"`
	PageTitle  string `json:"page_title,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	Country    string `json:"country,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// TrackPageView records a page view. An identity over its budget still gets 200
// and the view is dropped.
// @Router /api/analytics/pageview [post]
func (h *AnalyticsHandler) TrackPageView(w http.ResponseWriter, r *http.Request) {
	var req PageViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tracked, err := h.service.TrackPageView(r.Context(), services.PageViewInput{
		PagePath:   req.PagePath,
		PageTitle:  req.PageTitle,
		DeviceType: req.DeviceType,
		Country:    req.Country,
		UserAgent:  r.UserAgent(),
		SessionID:  req.SessionID,
	}, pkghttp.ClientIdentity(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	message := "Tracked"
	if !tracked {
		message = "Rate limited"
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// Summary returns the aggregated dashboard counts
// @Security BearerAuth
// @Router /api/analytics/summary [get]
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, summary)
}
