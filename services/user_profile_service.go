package services

import (
	"context"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UserProfileService is the record store for golf profiles
type UserProfileService struct {
	Dynamo *DynamoService
	Table  string
}

// profileUpdateExpression writes every profile column. created_at is only set when
// the row is being inserted.
const profileUpdateExpression = "SET #name = :name, #handedness = :handedness, #units = :units, " +
	"#swing = :swing, #handicap = :handicap, #clubs = :clubs, #picture = :picture, " +
	"#updated = :updated, #created = if_not_exists(#created, :updated)"

func profileKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: userID},
	}
}

// validateProfileConstraints enforces the column constraints the table relies on
func validateProfileConstraints(profile *models.ProfileRecord) error {
	if profile.ID == "" {
		return apperrors.InvalidInput("id", "profile id is required")
	}
	if profile.Name == "" {
		return apperrors.InvalidInput("name", "name is required")
	}
	if !profile.Handedness.Valid() {
		return apperrors.InvalidInput("handedness", "handedness must be one of "+models.JoinOptions(models.HandednessOptions))
	}
	if !profile.PreferredUnits.Valid() {
		return apperrors.InvalidInput("preferred_units", "preferred units must be one of "+models.JoinOptions(models.UnitsOptions))
	}
	if !profile.SwingTendency.Valid() {
		return apperrors.InvalidInput("swing_tendency", "swing tendency must be one of "+models.JoinOptions(models.SwingTendencyOptions))
	}
	for club := range profile.ClubDistances {
		if !models.IsRosterClub(club) {
			return apperrors.InvalidInput("club_distances", "unknown club "+club)
		}
	}
	return nil
}

// UpsertProfile inserts or updates the row for profile.ID and returns it as stored
func (ups *UserProfileService) UpsertProfile(ctx context.Context, profile *models.ProfileRecord) (*models.ProfileRecord, error) {
	if err := validateProfileConstraints(profile); err != nil {
		return nil, err
	}

	clubs := profile.ClubDistances
	if clubs == nil {
		clubs = map[string]float64{}
	}

	values := map[string]interface{}{
		":name":       profile.Name,
		":handedness": profile.Handedness,
		":units":      profile.PreferredUnits,
		":swing":      profile.SwingTendency,
		":handicap":   profile.Handicap,
		":clubs":      clubs,
		":picture":    models.NormalizePictureURL(profile.ProfilePicture),
		":updated":    profile.UpdatedAt,
	}
	expressionAttributeValues := make(map[string]types.AttributeValue, len(values))
	for placeholder, v := range values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, apperrors.Internal("failed to marshal "+placeholder, err)
		}
		expressionAttributeValues[placeholder] = av
	}

	expressionAttributeNames := map[string]string{
		"#name":       "name",
		"#handedness": "handedness",
		"#units":      "preferred_units",
		"#swing":      "swing_tendency",
		"#handicap":   "handicap",
		"#clubs":      "club_distances",
		"#picture":    "profile_picture",
		"#updated":    "updated_at",
		"#created":    "created_at",
	}

	item, err := ups.Dynamo.UpdateItem(ctx, ups.Table, profileUpdateExpression, profileKey(profile.ID), expressionAttributeValues, expressionAttributeNames)
	if err != nil {
		return nil, err
	}

	stored := *profile
	if len(item) > 0 {
		if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
			return nil, apperrors.Internal("failed to unmarshal profile", err)
		}
	}
	stored.Normalize()

	logger.Log.Info("Profile upserted", logger.WithUserID(profile.ID), logger.WithTable(ups.Table))
	return &stored, nil
}

// GetProfile retrieves a profile by user id
func (ups *UserProfileService) GetProfile(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	item, err := ups.Dynamo.GetItem(ctx, ups.Table, profileKey(userID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NotFound("profile")
	}

	var profile models.ProfileRecord
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, apperrors.Internal("failed to unmarshal profile", err)
	}
	profile.Normalize()
	return &profile, nil
}

// DeleteProfile removes a user's profile
func (ups *UserProfileService) DeleteProfile(ctx context.Context, userID string) error {
	if err := ups.Dynamo.DeleteItem(ctx, ups.Table, profileKey(userID)); err != nil {
		return err
	}
	logger.Log.Info("Profile deleted", logger.WithUserID(userID))
	return nil
}

// Dashboard builds the home screen summary. A user without a profile gets the
// default greeting and is flagged for setup.
func (ups *UserProfileService) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	profile, err := ups.GetProfile(ctx, userID)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return &models.Dashboard{
			Greeting:       "Welcome back, " + models.DefaultGreetingName + "!",
			Name:           models.DefaultGreetingName,
			UsePlaceholder: true,
			NeedsSetup:     true,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	name := profile.Name
	if name == "" {
		name = models.DefaultGreetingName
	}
	logger.Log.Debug("Dashboard loaded", logger.WithUserID(userID), zap.Bool("has_picture", profile.ProfilePicture != nil))

	return &models.Dashboard{
		Greeting:       "Welcome back, " + name + "!",
		Name:           name,
		ProfilePicture: profile.ProfilePicture,
		UsePlaceholder: profile.ProfilePicture == nil,
		Handedness:     profile.Handedness,
		PreferredUnits: profile.PreferredUnits,
		SwingTendency:  profile.SwingTendency,
		Handicap:       profile.Handicap,
	}, nil
}
