package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"
	"loopr_server/services"
	"loopr_server/utils"

	"go.uber.org/zap"
)

const (
	maxProfileForm  = 12 << 20
	maxAvatarBytes  = 10 << 20
	profilePicField = "profile_picture"
)

// ProfileSaver runs the save-my-profile workflow
type ProfileSaver interface {
	Save(ctx context.Context, req services.SaveProfileRequest) (*services.SaveProfileResult, error)
}

// ProfileReader reads and removes stored profiles
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.ProfileRecord, error)
	DeleteProfile(ctx context.Context, userID string) error
	Dashboard(ctx context.Context, userID string) (*models.Dashboard, error)
}

// UserProfileController handles requests related to golf profiles
type UserProfileController struct {
	Workflow ProfileSaver
	Profiles ProfileReader
	Sessions SessionResolver
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(workflow ProfileSaver, profiles ProfileReader, sessions SessionResolver) *UserProfileController {
	return &UserProfileController{Workflow: workflow, Profiles: profiles, Sessions: sessions}
}

// SaveProfile handles the profile setup form. Credentials are resolved by the
// workflow itself so a refresh token can be redeemed here.
func (c *UserProfileController) SaveProfile(w http.ResponseWriter, r *http.Request) {
	req, err := parseSaveRequest(w, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	req.Credentials = utils.CredentialsFromRequest(r)

	result, err := c.Workflow.Save(r.Context(), *req)
	if err != nil {
		var rotated *models.Session
		if result != nil {
			rotated = result.Session
		}
		utils.WriteErrorWithSession(w, r, err, rotated)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":         "Profile saved successfully",
		"profile":         result.Profile,
		"profile_picture": result.ProfilePicture,
		"session":         result.Session,
	})
}

// GetProfile returns the caller's stored profile
func (c *UserProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	profile, err := c.Profiles.GetProfile(r.Context(), session.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, profile)
}

// DeleteProfile removes the caller's profile
func (c *UserProfileController) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if err := c.Profiles.DeleteProfile(r.Context(), session.UserID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Profile deleted successfully", "userId": session.UserID})
}

// GetDashboard returns the home screen summary
func (c *UserProfileController) GetDashboard(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	dashboard, err := c.Profiles.Dashboard(r.Context(), session.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dashboard)
}

// saveProfileBody is the JSON form of the profile setup form. Numbers may be
// sent as JSON numbers or strings.
type saveProfileBody struct {
	Name           string          `json:"name"`
	Handedness     string          `json:"handedness"`
	PreferredUnits string          `json:"preferred_units"`
	SwingTendency  string          `json:"swing_tendency"`
	Handicap       formNumber      `json:"handicap"`
	ClubDistances  json.RawMessage `json:"club_distances"`
	ProfilePicture *string         `json:"profile_picture"`
}

// formNumber holds a number field as the workflow's raw text. null reads as blank.
type formNumber string

func (n *formNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = formNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a number or string, got %s", b)
	}
	*n = formNumber(num.String())
	return nil
}

// parseSaveRequest accepts the multipart form the app posts, or a JSON body
// when no new picture is attached
func parseSaveRequest(w http.ResponseWriter, r *http.Request) (*services.SaveProfileRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body saveProfileBody
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		clubs, err := parseClubDistances(body.ClubDistances)
		if err != nil {
			return nil, err
		}
		return &services.SaveProfileRequest{
			Form: services.ProfileForm{
				Name:           body.Name,
				Handedness:     body.Handedness,
				PreferredUnits: body.PreferredUnits,
				SwingTendency:  body.SwingTendency,
				Handicap:       string(body.Handicap),
				ClubDistances:  clubs,
			},
			PreviousPicture: body.ProfilePicture,
		}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProfileForm)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		return nil, apperrors.InvalidInput("body", "invalid profile form")
	}

	clubs, err := parseClubDistances([]byte(r.FormValue("club_distances")))
	if err != nil {
		return nil, err
	}

	req := &services.SaveProfileRequest{
		Form: services.ProfileForm{
			Name:           r.FormValue("name"),
			Handedness:     r.FormValue("handedness"),
			PreferredUnits: r.FormValue("preferred_units"),
			SwingTendency:  r.FormValue("swing_tendency"),
			Handicap:       r.FormValue("handicap"),
			ClubDistances:  clubs,
		},
	}
	if values, ok := r.MultipartForm.Value[profilePicField]; ok && len(values) > 0 {
		previous := values[0]
		req.PreviousPicture = &previous
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, apperrors.InvalidInput("image", "could not read image")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		return nil, apperrors.InvalidInput("image", "could not read image")
	}
	if len(data) > maxAvatarBytes {
		return nil, apperrors.InvalidInput("image", "image is larger than 10 MB")
	}
	req.Image = &models.PendingImage{
		Data:        data,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	logger.Log.Debug("Profile image received", zap.String("file", header.Filename), zap.Int("bytes", len(data)))
	return req, nil
}

// parseClubDistances reads the club_distances object. Values may be strings,
// numbers or null.
func parseClubDistances(raw []byte) (map[string]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var decoded map[string]formNumber
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperrors.InvalidInput("club_distances", "club distances must be an object of numbers")
	}

	clubs := make(map[string]string, len(decoded))
	for club, v := range decoded {
		clubs[club] = string(v)
	}
	return clubs, nil
}
