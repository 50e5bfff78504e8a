package services

import (
	"context"
	"errors"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps refresh tokens. Lookup-and-delete must be atomic so a
// refresh token can only be redeemed once.
type SessionStore interface {
	SaveRefreshToken(ctx context.Context, token string, owner RefreshOwner, ttl time.Duration) error
	TakeRefreshToken(ctx context.Context, token string) (*RefreshOwner, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// RefreshOwner is what a refresh token resolves to
type RefreshOwner struct {
	UserID string
	Email  string
}

// RedisSessionStore keeps refresh tokens as redis hashes with a TTL
type RedisSessionStore struct {
	Client *redis.Client
}

func refreshKey(token string) string {
	return "session:refresh:" + token
}

func (r *RedisSessionStore) SaveRefreshToken(ctx context.Context, token string, owner RefreshOwner, ttl time.Duration) error {
	key := refreshKey(token)
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "user_id", owner.UserID, "email", owner.Email)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *RedisSessionStore) TakeRefreshToken(ctx context.Context, token string) (*RefreshOwner, error) {
	key := refreshKey(token)
	var fields *redis.MapStringStringCmd
	var deleted *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		deleted = pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	values := fields.Val()
	if deleted.Val() == 0 || values["user_id"] == "" {
		return nil, nil
	}
	return &RefreshOwner{UserID: values["user_id"], Email: values["email"]}, nil
}

func (r *RedisSessionStore) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.Client.Del(ctx, refreshKey(token)).Err()
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

const tokenIssuer = "loopr"

// SessionService is the identity provider: it issues, validates and refreshes sessions
type SessionService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      SessionStore
	now        func() time.Time
}

func NewSessionService(secret []byte, accessTTL, refreshTTL time.Duration, store SessionStore) *SessionService {
	return &SessionService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// IssueSession creates a new access token and refresh token for a user
func (s *SessionService) IssueSession(ctx context.Context, userID, email string) (*models.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token", err)
	}

	refreshToken := uuid.NewString()
	if err := s.store.SaveRefreshToken(ctx, refreshToken, RefreshOwner{UserID: userID, Email: email}, s.refreshTTL); err != nil {
		return nil, apperrors.StoreUnavailable("failed to store refresh token", err)
	}

	return &models.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// CurrentSession validates the access token and returns the session it proves
func (s *SessionService) CurrentSession(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.AccessToken == "" {
		return nil, apperrors.NotAuthenticated("no access token", nil)
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(creds.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NotAuthenticated("session expired", err)
		}
		return nil, apperrors.NotAuthenticated("invalid access token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.NotAuthenticated("invalid token claims", nil)
	}

	session := &models.Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// RefreshSession redeems the refresh token and issues a new session. The old
// refresh token stops working.
func (s *SessionService) RefreshSession(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.RefreshToken == "" {
		return nil, apperrors.NotAuthenticated("no refresh token", nil)
	}

	owner, err := s.store.TakeRefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return nil, apperrors.NotAuthenticated("session store unavailable", err)
	}
	if owner == nil {
		return nil, apperrors.NotAuthenticated("refresh token expired or already used", nil)
	}

	session, err := s.IssueSession(ctx, owner.UserID, owner.Email)
	if err != nil {
		return nil, apperrors.NotAuthenticated("failed to refresh session", err)
	}
	logger.Log.Debug("Session refreshed", logger.WithUserID(owner.UserID))
	return session, nil
}

// RevokeSession signs a session out by deleting its refresh token
func (s *SessionService) RevokeSession(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.store.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return apperrors.StoreUnavailable("failed to revoke session", err)
	}
	return nil
}
