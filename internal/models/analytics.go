package models

import "time"

// PageView is a single tracked page view
type PageView struct {
	ID         string
	PagePath   string
	PageTitle  string
	DeviceType string
	Country    string
	UserAgent  string
	SessionID  string
	ViewedAt   time.Time
}

// PageCount pairs a page path with its view count
type PageCount struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// AnalyticsSummary aggregates page views for the admin dashboard
type AnalyticsSummary struct {
	TotalVisits      int            `json:"total_visits"`
	VisitsToday      int            `json:"visits_today"`
	VisitsThisWeek   int            `json:"visits_this_week"`
	VisitsThisMonth  int            `json:"visits_this_month"`
	DeviceBreakdown  map[string]int `json:"device_breakdown"`
	CountryBreakdown map[string]int `json:"country_breakdown"`
	TopPages         []PageCount    `json:"top_pages"`
}
