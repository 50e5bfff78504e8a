package controllers

import (
	"context"
	"net/http"
	"strings"

	"loopr_server/apperrors"
	"loopr_server/utils"
)

// AvatarReader signs read URLs for stored avatars
type AvatarReader interface {
	GenerateReadURL(ctx context.Context, key string) (string, error)
	KeyFromPublicURL(publicURL string) (string, bool)
}

// S3Controller serves avatar read URLs
type S3Controller struct {
	Avatars  AvatarReader
	Sessions SessionResolver
}

func NewS3Controller(avatars AvatarReader, sessions SessionResolver) *S3Controller {
	return &S3Controller{Avatars: avatars, Sessions: sessions}
}

// GetPresignedReadURL generates a short lived URL for one of the caller's avatars.
// The object is named either by key or by the public URL stored on the profile.
func (c *S3Controller) GetPresignedReadURL(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	var payload struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	key := payload.Key
	if key == "" && payload.URL != "" {
		var ok bool
		if key, ok = c.Avatars.KeyFromPublicURL(payload.URL); !ok {
			utils.WriteError(w, r, apperrors.InvalidInput("url", "not an avatar address"))
			return
		}
	}
	if key == "" {
		utils.WriteError(w, r, apperrors.InvalidInput("key", "key or url is required"))
		return
	}
	if !strings.HasPrefix(key, "public/"+session.UserID+"_") {
		utils.WriteError(w, r, apperrors.PermissionDenied("avatar belongs to another user", nil))
		return
	}

	url, err := c.Avatars.GenerateReadURL(r.Context(), key)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"url": url})
}
