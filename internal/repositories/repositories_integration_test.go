//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	sharedDB.truncate(t)
	ctx := context.Background()
	repo := NewUserRepository(sharedDB.db)

	user, err := repo.Create(ctx, &models.User{
		Email:        " Admin@Novatech.Example ",
		PasswordHash: "$2a$12$hash",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@novatech.example", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)

	got, err := repo.GetByEmail(ctx, "ADMIN@novatech.example")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$hash", got.PasswordHash)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Create(ctx, &models.User{Email: "admin@novatech.example", PasswordHash: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)

	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "$2a$12$new"))
	require.NoError(t, repo.UpdateEmail(ctx, user.ID, "Office@Novatech.Example"))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$new", got.PasswordHash)
	assert.Equal(t, "office@novatech.example", got.Email)

	other, err := repo.Create(ctx, &models.User{Email: "editor@novatech.example", PasswordHash: "x", Role: models.RoleEditor})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.UpdateEmail(ctx, other.ID, "office@novatech.example"), models.ErrConflict)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "7f1c7a52-0000-4000-8000-000000000000", "x"), models.ErrNotFound)
}

func TestSubmissionRepository(t *testing.T) {
	sharedDB.truncate(t)
	ctx := context.Background()
	repo := NewSubmissionRepository(sharedDB.db)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := repo.Create(ctx, &models.Submission{
		Type:      models.SubmissionContact,
		Data:      map[string]string{"name": "Mario", "message": "Ciao"},
		IPHash:    "abcdef0123456789",
		CreatedAt: base,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Submission{
		Type:      models.SubmissionTrialLesson,
		Data:      map[string]string{"full_name": "Giulia"},
		IPHash:    "abcdef0123456789",
		CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	all, err := repo.List(ctx, "", 200)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.SubmissionTrialLesson, all[0].Type, "newest first")

	contacts, err := repo.List(ctx, models.SubmissionContact, 200)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ciao", contacts[0].Data["message"])
	assert.False(t, contacts[0].IsRead)

	require.NoError(t, repo.MarkRead(ctx, first.ID))
	contacts, err = repo.List(ctx, models.SubmissionContact, 200)
	require.NoError(t, err)
	assert.True(t, contacts[0].IsRead)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), models.ErrNotFound)
	assert.ErrorIs(t, repo.MarkRead(ctx, "garbage"), models.ErrNotFound)
}

func TestPageViewRepository(t *testing.T) {
	sharedDB.truncate(t)
	ctx := context.Background()
	repo := NewPageViewRepository(sharedDB.db)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	views := []models.PageView{
		{PagePath: "/", DeviceType: "mobile", Country: "IT", ViewedAt: now},
		{PagePath: "/", DeviceType: "desktop", Country: "IT", ViewedAt: now.Add(-time.Hour)},
		{PagePath: "/courses", DeviceType: "mobile", Country: "DE", ViewedAt: now.AddDate(0, -1, 0)},
	}
	for i := range views {
		require.NoError(t, repo.Create(ctx, &views[i]))
	}

	total, err := repo.CountSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	recent, err := repo.CountSince(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, recent)

	devices, err := repo.CountByColumn(ctx, "device_type")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"mobile": 2, "desktop": 1}, devices)

	_, err = repo.CountByColumn(ctx, "user_agent; DROP TABLE page_views")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	top, err := repo.TopPages(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.PageCount{{Path: "/", Views: 2}, {Path: "/courses", Views: 1}}, top)
}
