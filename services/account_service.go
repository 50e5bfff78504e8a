package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	emailIndexName    = "EmailIndex"
	minPasswordLength = 6
)

// AccountService handles sign up, login and sign out
type AccountService struct {
	Dynamo   *DynamoService
	Table    string
	Sessions *SessionService
	Cost     int // bcrypt cost, bcrypt.DefaultCost when zero
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.InvalidInput("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.InvalidInput("email", "email is not valid")
	}
	return email, nil
}

func (as *AccountService) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	items, err := as.Dynamo.QueryItemsWithIndex(ctx, as.Table, emailIndexName,
		"email = :email",
		map[string]types.AttributeValue{":email": &types.AttributeValueMemberS{Value: email}},
		nil, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var account models.Account
	if err := attributevalue.UnmarshalMap(items[0], &account); err != nil {
		return nil, apperrors.Internal("failed to unmarshal account", err)
	}
	return &account, nil
}

// SignUp creates an account and returns its first session
func (as *AccountService) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.InvalidInput("password", "password must be at least 6 characters")
	}

	existing, err := as.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("an account with this email already exists")
	}

	cost := as.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := as.Dynamo.PutItemIfAbsent(ctx, as.Table, "id", account); err != nil {
		return nil, err
	}
	logger.Log.Info("Account created", logger.WithUserID(account.ID))

	return as.Sessions.IssueSession(ctx, account.ID, account.Email)
}

// Login checks the password and issues a session. Unknown email and wrong
// password fail the same way.
func (as *AccountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	account, err := as.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.NotAuthenticated("invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NotAuthenticated("invalid email or password", nil)
	}

	logger.Log.Info("Login succeeded", logger.WithUserID(account.ID))
	return as.Sessions.IssueSession(ctx, account.ID, account.Email)
}

// SignOut revokes the refresh token of the session
func (as *AccountService) SignOut(ctx context.Context, refreshToken string) error {
	return as.Sessions.RevokeSession(ctx, refreshToken)
}
