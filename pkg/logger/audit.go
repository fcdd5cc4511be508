package logger

import (
	"context"
	"log/slog"
)

// Audit event types
const (
	EventLogin             = "login"
	EventMasterLogin       = "master_login"
	EventBlacklisted       = "identity_blacklisted"
	EventCredentialsUpdate = "credentials_update"
	EventAdminBootstrap    = "admin_bootstrap"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	Identity      string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security events as "audit" records on the application logger
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs a login or master login attempt. The email is masked.
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}
	attrs = append(attrs, event.attrs()...)

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogBlacklisted records that identity crossed the failed attempt threshold
func (al *AuditLogger) LogBlacklisted(ctx context.Context, identity string, attempts int) {
	al.logger.LogAttrs(ctx, slog.LevelWarn, "audit",
		slog.String("audit_type", "security"),
		slog.String("event_type", EventBlacklisted),
		slog.String("identity", identity),
		slog.Int("attempts", attempts),
	)
}

// LogAccountAction logs changes made to an account
func (al *AuditLogger) LogAccountAction(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}
	attrs = append(attrs, event.attrs()...)

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}

func (e AuditEvent) attrs() []slog.Attr {
	var attrs []slog.Attr
	if e.UserID != "" {
		attrs = append(attrs, slog.String("user_id", e.UserID))
	}
	if e.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(e.Email)))
	}
	if e.Identity != "" {
		attrs = append(attrs, slog.String("identity", e.Identity))
	}
	if e.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", e.UserAgent))
	}
	if e.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", e.FailureReason))
	}
	for key, val := range e.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}
	return attrs
}
