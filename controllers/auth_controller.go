package controllers

import (
	"context"
	"net/http"

	"loopr_server/apperrors"
	"loopr_server/metrics"
	"loopr_server/models"
	"loopr_server/utils"
)

// AccountManager signs users up, in and out
type AccountManager interface {
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// SessionRefresher redeems refresh tokens
type SessionRefresher interface {
	RefreshSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

// AuthController handles account and session requests
type AuthController struct {
	Accounts AccountManager
	Sessions SessionRefresher
}

func NewAuthController(accounts AccountManager, sessions SessionRefresher) *AuthController {
	return &AuthController{Accounts: accounts, Sessions: sessions}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUp creates an account and signs it in
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	session, err := c.Accounts.SignUp(r.Context(), body.Email, body.Password)
	metrics.Get().RecordAuthEvent("signup", err)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, session)
}

// Login signs an existing account in
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	session, err := c.Accounts.Login(r.Context(), body.Email, body.Password)
	metrics.Get().RecordAuthEvent("login", err)
	if apperrors.KindOf(err) == apperrors.KindNotAuthenticated {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, utils.ErrorResponse{
			Code:    apperrors.KindNotAuthenticated,
			Message: "Invalid email or password.",
		})
		return
	}
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, session)
}

// Refresh trades a refresh token for a new session
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	token := utils.CredentialsFromRequest(r).RefreshToken
	if token == "" {
		var body refreshBody
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		token = body.RefreshToken
	}

	session, err := c.Sessions.RefreshSession(r.Context(), models.Credentials{RefreshToken: token})
	metrics.Get().RecordAuthEvent("refresh", err)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, session)
}

// Logout revokes the refresh token. It succeeds even when the token is unknown.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	token := utils.CredentialsFromRequest(r).RefreshToken
	if token == "" {
		var body refreshBody
		if err := utils.DecodeJSON(w, r, &body); err == nil {
			token = body.RefreshToken
		}
	}

	err := c.Accounts.SignOut(r.Context(), token)
	metrics.Get().RecordAuthEvent("logout", err)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
