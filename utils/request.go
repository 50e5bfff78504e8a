package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	"loopr_server/apperrors"
	"loopr_server/models"
)

const (
	RefreshTokenHeader = "X-Refresh-Token"
	maxJSONBody        = 1 << 20
)

// CredentialsFromRequest reads the bearer access token and the optional refresh token
func CredentialsFromRequest(r *http.Request) models.Credentials {
	var creds models.Credentials
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		creds.AccessToken = strings.TrimSpace(auth[7:])
	}
	creds.RefreshToken = strings.TrimSpace(r.Header.Get(RefreshTokenHeader))
	return creds
}

// DecodeJSON decodes a bounded JSON request body into dst
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("body", "invalid request payload")
	}
	return nil
}
