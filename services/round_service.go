package services

import (
	"context"
	"sort"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const roundsUserIndex = "UserIndex"

// RoundService records rounds started from game setup
type RoundService struct {
	Dynamo *DynamoService
	Table  string
	now    func() time.Time
}

// StartRound validates the tee and hole choice against the course and stores a new round
func (rs *RoundService) StartRound(ctx context.Context, userID string, course *models.Course, teeName, holeOption string) (*models.Round, error) {
	if userID == "" {
		return nil, apperrors.NotAuthenticated("no user for round", nil)
	}
	if course == nil {
		return nil, apperrors.InvalidInput("courseId", "course is required")
	}

	first, last, ok := models.HoleRange(holeOption)
	if !ok {
		return nil, apperrors.InvalidInput("holeOption", "hole option must be one of "+models.JoinOptions(models.HoleOptions))
	}
	tee, ok := course.FindTee(teeName)
	if !ok {
		return nil, apperrors.InvalidInput("tee", "please select a tee")
	}

	now := time.Now
	if rs.now != nil {
		now = rs.now
	}
	round := &models.Round{
		RoundID:    uuid.NewString(),
		UserID:     userID,
		CourseID:   course.ID,
		ClubName:   course.ClubName,
		CourseName: course.CourseName,
		Tee:        tee,
		HoleOption: holeOption,
		FirstHole:  first,
		LastHole:   last,
		CreatedAt:  now().UTC(),
	}

	if err := rs.Dynamo.PutItem(ctx, rs.Table, round); err != nil {
		return nil, err
	}

	logger.Log.Info("Round started",
		logger.WithUserID(userID),
		zap.String("roundId", round.RoundID),
		zap.Int("courseId", course.ID),
		zap.String("holeOption", holeOption),
	)
	return round, nil
}

// ListRounds returns a user's rounds, newest first
func (rs *RoundService) ListRounds(ctx context.Context, userID string) ([]models.Round, error) {
	items, err := rs.Dynamo.QueryItemsWithIndex(ctx, rs.Table, roundsUserIndex,
		"userId = :userId",
		map[string]types.AttributeValue{":userId": &types.AttributeValueMemberS{Value: userID}},
		nil, 0)
	if err != nil {
		return nil, err
	}

	rounds := make([]models.Round, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &rounds); err != nil {
		return nil, apperrors.Internal("failed to unmarshal rounds", err)
	}
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].CreatedAt.After(rounds[j].CreatedAt)
	})
	return rounds, nil
}
