package services

import (
	"context"
	"testing"
	"time"

	"loopr_server/apperrors"
	"loopr_server/models"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileService() (*UserProfileService, *fakeDynamo) {
	fake := newFakeDynamo()
	return &UserProfileService{Dynamo: &DynamoService{Client: fake}, Table: "profile"}, fake
}

func sampleProfile(at time.Time) *models.ProfileRecord {
	handicap := 12.3
	return &models.ProfileRecord{
		ID:             "user-1",
		Name:           "Jane Doe",
		Handedness:     models.HandednessRight,
		PreferredUnits: models.UnitsYards,
		SwingTendency:  models.SwingDraw,
		Handicap:       &handicap,
		ClubDistances:  map[string]float64{"Driver": 230},
		UpdatedAt:      at,
	}
}

func TestUpsertProfileInsertsThenUpdates(t *testing.T) {
	svc, _ := newProfileService()
	ctx := context.Background()
	first := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	stored, err := svc.UpsertProfile(ctx, sampleProfile(first))
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(first))
	assert.True(t, stored.UpdatedAt.Equal(first))
	assert.Nil(t, stored.ProfilePicture)

	second := first.Add(time.Hour)
	update := sampleProfile(second)
	update.Name = "Jane Q. Doe"
	update.Handicap = nil
	update.ProfilePicture = strPtr("https://cdn.loopr.test/public/user-1_1.png")

	stored, err = svc.UpsertProfile(ctx, update)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(first), "created_at must survive updates")
	assert.True(t, stored.UpdatedAt.Equal(second))
	assert.Equal(t, "Jane Q. Doe", stored.Name)
	assert.Nil(t, stored.Handicap)
	require.NotNil(t, stored.ProfilePicture)

	loaded, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, stored.Name, loaded.Name)
	assert.Equal(t, map[string]float64{"Driver": 230}, loaded.ClubDistances)
	assert.Equal(t, *stored.ProfilePicture, *loaded.ProfilePicture)
}

func TestUpsertProfileStoresEmptyPictureAsNull(t *testing.T) {
	svc, _ := newProfileService()
	p := sampleProfile(time.Now().UTC())
	p.ProfilePicture = strPtr("")

	stored, err := svc.UpsertProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Nil(t, stored.ProfilePicture)
}

func TestUpsertProfileRejectsConstraintViolations(t *testing.T) {
	svc, fake := newProfileService()

	p := sampleProfile(time.Now().UTC())
	p.SwingTendency = "Shank"
	_, err := svc.UpsertProfile(context.Background(), p)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidInput, appErr.Kind)
	assert.Equal(t, "swing_tendency", appErr.Field)
	assert.Zero(t, fake.calls["UpdateItem"])
}

func TestUpsertProfilePermissionDenied(t *testing.T) {
	svc, fake := newProfileService()
	fake.errs["UpdateItem"] = &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not authorized"}

	_, err := svc.UpsertProfile(context.Background(), sampleProfile(time.Now().UTC()))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGetProfileNotFound(t *testing.T) {
	svc, _ := newProfileService()

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteProfile(t *testing.T) {
	svc, _ := newProfileService()
	ctx := context.Background()

	_, err := svc.UpsertProfile(ctx, sampleProfile(time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProfile(ctx, "user-1"))

	_, err = svc.GetProfile(ctx, "user-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	svc, _ := newProfileService()
	ctx := context.Background()

	dash, err := svc.Dashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Golfer!", dash.Greeting)
	assert.True(t, dash.NeedsSetup)
	assert.True(t, dash.UsePlaceholder)

	p := sampleProfile(time.Now().UTC())
	p.ProfilePicture = strPtr("https://cdn.loopr.test/public/user-1_1.png")
	_, err = svc.UpsertProfile(ctx, p)
	require.NoError(t, err)

	dash, err = svc.Dashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome back, Jane Doe!", dash.Greeting)
	assert.False(t, dash.NeedsSetup)
	assert.False(t, dash.UsePlaceholder)
	assert.Equal(t, models.SwingDraw, dash.SwingTendency)
}
