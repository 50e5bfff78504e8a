package controllers

import (
	"context"
	"net/http"

	"loopr_server/apperrors"
	"loopr_server/models"
	"loopr_server/utils"
)

// SessionResolver validates the access token presented with a request
type SessionResolver interface {
	CurrentSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the Loopr API."})
}

// requireSession resolves the caller from the bearer token. Read-only endpoints
// never rotate the refresh token.
func requireSession(sessions SessionResolver, r *http.Request) (*models.Session, error) {
	creds := utils.CredentialsFromRequest(r)
	if creds.AccessToken == "" {
		return nil, apperrors.NotAuthenticated("no access token", nil)
	}
	session, err := sessions.CurrentSession(r.Context(), creds)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID == "" {
		return nil, apperrors.NotAuthenticated("no active session", nil)
	}
	return session, nil
}
