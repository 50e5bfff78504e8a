package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"loopr_server/apperrors"
	"loopr_server/models"
	"loopr_server/services"
	"loopr_server/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type stubSessions struct {
	valid map[string]string // access token -> user id
}

func (s *stubSessions) CurrentSession(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if userID, ok := s.valid[creds.AccessToken]; ok {
		return &models.Session{UserID: userID, AccessToken: creds.AccessToken}, nil
	}
	return nil, apperrors.NotAuthenticated("invalid access token", nil)
}

func (s *stubSessions) RefreshSession(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.RefreshToken == "good-refresh" {
		return &models.Session{UserID: "user-1", AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
	}
	return nil, apperrors.NotAuthenticated("refresh token expired or already used", nil)
}

type stubWorkflow struct {
	requests []services.SaveProfileRequest
	err      error
	partial  *services.SaveProfileResult
}

func (s *stubWorkflow) Save(ctx context.Context, req services.SaveProfileRequest) (*services.SaveProfileResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return s.partial, s.err
	}
	return &services.SaveProfileResult{
		Profile:        &models.ProfileRecord{ID: "user-1", Name: req.Form.Name},
		ProfilePicture: req.PreviousPicture,
		Session:        &models.Session{UserID: "user-1"},
	}, nil
}

type stubProfiles struct {
	deleted []string
}

func (s *stubProfiles) GetProfile(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	if userID != "user-1" {
		return nil, apperrors.NotFound("profile")
	}
	return &models.ProfileRecord{ID: userID, Name: "Jane Doe", ClubDistances: map[string]float64{}}, nil
}

func (s *stubProfiles) DeleteProfile(ctx context.Context, userID string) error {
	s.deleted = append(s.deleted, userID)
	return nil
}

func (s *stubProfiles) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	return &models.Dashboard{Greeting: "Welcome back, Golfer!", Name: "Golfer", UsePlaceholder: true, NeedsSetup: true}, nil
}

type stubAccounts struct{}

func (stubAccounts) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	if email == "taken@example.com" {
		return nil, apperrors.Conflict("an account with this email already exists")
	}
	return &models.Session{UserID: "user-1", Email: email, AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (stubAccounts) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if password != "birdie42" {
		return nil, apperrors.NotAuthenticated("invalid email or password", nil)
	}
	return &models.Session{UserID: "user-1", Email: email, AccessToken: "access"}, nil
}

func (stubAccounts) SignOut(ctx context.Context, refreshToken string) error { return nil }

type stubAvatars struct{}

func (stubAvatars) GenerateReadURL(ctx context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (stubAvatars) KeyFromPublicURL(publicURL string) (string, bool) {
	const base = "https://cdn.loopr.test/"
	if !strings.HasPrefix(publicURL, base) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, base), true
}

type stubCourses struct{}

func (stubCourses) SearchCourses(ctx context.Context, query string) ([]models.Course, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.InvalidInput("query", "please enter a course name to search")
	}
	return []models.Course{{ID: 8621, CourseName: "Pebble Beach"}}, nil
}

func (stubCourses) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	if courseID != 8621 {
		return nil, apperrors.NotFound("course")
	}
	return &models.Course{ID: 8621, Tees: models.CourseTees{Male: []models.Tee{{TeeName: "Blue"}}}}, nil
}

type stubRounds struct{}

func (stubRounds) StartRound(ctx context.Context, userID string, course *models.Course, teeName, holeOption string) (*models.Round, error) {
	if _, ok := course.FindTee(teeName); !ok {
		return nil, apperrors.InvalidInput("tee", "please select a tee")
	}
	return &models.Round{RoundID: "round-1", UserID: userID, CourseID: course.ID, HoleOption: holeOption}, nil
}

func (stubRounds) ListRounds(ctx context.Context, userID string) ([]models.Round, error) {
	return []models.Round{}, nil
}

type ControllerTestSuite struct {
	suite.Suite
	router   *mux.Router
	workflow *stubWorkflow
	profiles *stubProfiles
}

func (s *ControllerTestSuite) SetupTest() {
	sessions := &stubSessions{valid: map[string]string{"access": "user-1"}}
	s.workflow = &stubWorkflow{}
	s.profiles = &stubProfiles{}

	profile := NewUserProfileController(s.workflow, s.profiles, sessions)
	auth := NewAuthController(stubAccounts{}, sessions)
	avatars := NewS3Controller(stubAvatars{}, sessions)
	courses := NewCourseController(stubCourses{}, stubRounds{}, sessions)

	r := mux.NewRouter()
	r.HandleFunc("/health", HealthCheckHandler).Methods("GET")
	r.HandleFunc("/api/profile", profile.SaveProfile).Methods("PUT")
	r.HandleFunc("/api/profile", profile.GetProfile).Methods("GET")
	r.HandleFunc("/api/profile", profile.DeleteProfile).Methods("DELETE")
	r.HandleFunc("/api/dashboard", profile.GetDashboard).Methods("GET")
	r.HandleFunc("/api/auth/signup", auth.SignUp).Methods("POST")
	r.HandleFunc("/api/auth/login", auth.Login).Methods("POST")
	r.HandleFunc("/api/auth/refresh", auth.Refresh).Methods("POST")
	r.HandleFunc("/api/avatars/read-url", avatars.GetPresignedReadURL).Methods("POST")
	r.HandleFunc("/api/courses/search", courses.SearchCourses).Methods("GET")
	r.HandleFunc("/api/courses/{courseId}", courses.GetCourse).Methods("GET")
	r.HandleFunc("/api/rounds", courses.StartRound).Methods("POST")
	s.router = r
}

func (s *ControllerTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ControllerTestSuite) jsonRequest(method, path string, body interface{}, token string) *http.Request {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (s *ControllerTestSuite) decodeError(w *httptest.ResponseRecorder) utils.ErrorResponse {
	var body utils.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func profileMultipart(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="IMG_0042.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *ControllerTestSuite) TestHealth() {
	w := s.do(httptest.NewRequest("GET", "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
}

func (s *ControllerTestSuite) TestSaveProfileMultipart() {
	body, contentType := profileMultipart(s.T(), map[string]string{
		"name":            "Jane Doe",
		"handedness":      "Right",
		"preferred_units": "Yards",
		"swing_tendency":  "Draw",
		"handicap":        "12.3",
		"club_distances":  `{"Driver":"230","7 Iron":150}`,
		"profile_picture": "https://cdn.loopr.test/public/user-1_1.png",
	}, []byte("\x89PNG\r\n\x1a\n"))

	req := httptest.NewRequest("PUT", "/api/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer access")
	req.Header.Set(utils.RefreshTokenHeader, "refresh")

	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Require().Len(s.workflow.requests, 1)
	got := s.workflow.requests[0]
	s.Equal("access", got.Credentials.AccessToken)
	s.Equal("refresh", got.Credentials.RefreshToken)
	s.Equal("Jane Doe", got.Form.Name)
	s.Equal("12.3", got.Form.Handicap)
	s.Equal(map[string]string{"Driver": "230", "7 Iron": "150"}, got.Form.ClubDistances)
	s.Require().NotNil(got.PreviousPicture)
	s.Equal("https://cdn.loopr.test/public/user-1_1.png", *got.PreviousPicture)
	s.Require().NotNil(got.Image)
	s.Equal("IMG_0042.png", got.Image.FileName)
	s.Equal("image/png", got.Image.ContentType)
}

func (s *ControllerTestSuite) TestSaveProfileWithoutPictureField() {
	body, contentType := profileMultipart(s.T(), map[string]string{"name": "Jane Doe"}, nil)
	req := httptest.NewRequest("PUT", "/api/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer access")

	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Nil(s.workflow.requests[0].PreviousPicture)
	s.Nil(s.workflow.requests[0].Image)
}

func (s *ControllerTestSuite) TestSaveProfileJSON() {
	w := s.do(s.jsonRequest("PUT", "/api/profile", map[string]interface{}{
		"name":           "Jane Doe",
		"handedness":     "Left",
		"club_distances": map[string]string{"Putter": "5"},
	}, "access"))

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Left", s.workflow.requests[0].Form.Handedness)
	s.Equal("5", s.workflow.requests[0].Form.ClubDistances["Putter"])
}

func (s *ControllerTestSuite) TestSaveProfileJSONAcceptsNumbers() {
	w := s.do(s.jsonRequest("PUT", "/api/profile", map[string]interface{}{
		"name":           "Jane Doe",
		"handicap":       12.3,
		"club_distances": map[string]interface{}{"Driver": 230, "Putter": "5", "Sand Wedge": nil},
	}, "access"))

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	got := s.workflow.requests[0].Form
	s.Equal("12.3", got.Handicap)
	s.Equal(map[string]string{"Driver": "230", "Putter": "5", "Sand Wedge": ""}, got.ClubDistances)
}

func (s *ControllerTestSuite) TestSaveProfileJSONRejectsNonNumericDistance() {
	w := s.do(s.jsonRequest("PUT", "/api/profile", map[string]interface{}{
		"name":           "Jane Doe",
		"club_distances": map[string]interface{}{"Driver": true},
	}, "access"))

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("club_distances", s.decodeError(w).Field)
	s.Empty(s.workflow.requests)
}

func (s *ControllerTestSuite) TestSaveProfileFailureCarriesRotatedSession() {
	s.workflow.err = apperrors.UploadFailed("avatar upload failed", nil)
	s.workflow.partial = &services.SaveProfileResult{
		Session: &models.Session{UserID: "user-1", AccessToken: "new-access", RefreshToken: "new-refresh"},
	}

	req := s.jsonRequest("PUT", "/api/profile", map[string]string{"name": "Jane"}, "stale")
	req.Header.Set(utils.RefreshTokenHeader, "refresh")
	w := s.do(req)

	s.Equal(http.StatusBadGateway, w.Code)
	body := s.decodeError(w)
	s.Equal(apperrors.KindUploadFailed, body.Code)
	s.Require().NotNil(body.Session)
	s.Equal("new-refresh", body.Session.RefreshToken)
}

func (s *ControllerTestSuite) TestSaveProfileBadClubDistances() {
	body, contentType := profileMultipart(s.T(), map[string]string{"name": "Jane", "club_distances": "[1,2]"}, nil)
	req := httptest.NewRequest("PUT", "/api/profile", body)
	req.Header.Set("Content-Type", contentType)

	w := s.do(req)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("club_distances", s.decodeError(w).Field)
	s.Empty(s.workflow.requests)
}

func (s *ControllerTestSuite) TestSaveProfileErrorMapping() {
	tests := []struct {
		err    error
		status int
		code   apperrors.Kind
	}{
		{apperrors.NotAuthenticated("no credentials presented", nil), http.StatusUnauthorized, apperrors.KindNotAuthenticated},
		{apperrors.InvalidInput("name", "please enter your full name"), http.StatusUnprocessableEntity, apperrors.KindInvalidInput},
		{apperrors.UploadFailed("avatar upload failed", nil), http.StatusBadGateway, apperrors.KindUploadFailed},
		{apperrors.PermissionDenied("denied", nil), http.StatusForbidden, apperrors.KindPermissionDenied},
		{apperrors.StoreUnavailable("down", nil), http.StatusServiceUnavailable, apperrors.KindStoreUnavailable},
		{apperrors.SaveInProgress("user-1"), http.StatusConflict, apperrors.KindSaveInProgress},
	}

	for _, tt := range tests {
		s.workflow.err = tt.err
		w := s.do(s.jsonRequest("PUT", "/api/profile", map[string]string{"name": "Jane"}, "access"))
		s.Equal(tt.status, w.Code, tt.code)
		s.Equal(tt.code, s.decodeError(w).Code)
	}
}

func (s *ControllerTestSuite) TestReadEndpointsRequireSession() {
	for _, path := range []string{"/api/profile", "/api/dashboard", "/api/courses/search?q=pebble"} {
		w := s.do(httptest.NewRequest("GET", path, nil))
		s.Equal(http.StatusUnauthorized, w.Code, path)
	}

	req := httptest.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer forged")
	s.Equal(http.StatusUnauthorized, s.do(req).Code)
}

func (s *ControllerTestSuite) TestGetProfileAndDashboard() {
	req := httptest.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer access")
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Jane Doe")

	req = httptest.NewRequest("GET", "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer access")
	w = s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)

	var dash models.Dashboard
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &dash))
	s.True(dash.NeedsSetup)
	s.Equal("Welcome back, Golfer!", dash.Greeting)
}

func (s *ControllerTestSuite) TestDeleteProfile() {
	req := httptest.NewRequest("DELETE", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer access")

	w := s.do(req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal([]string{"user-1"}, s.profiles.deleted)
}

func (s *ControllerTestSuite) TestAuthFlow() {
	w := s.do(s.jsonRequest("POST", "/api/auth/signup", map[string]string{"email": "jane@example.com", "password": "birdie42"}, ""))
	s.Equal(http.StatusCreated, w.Code)

	w = s.do(s.jsonRequest("POST", "/api/auth/signup", map[string]string{"email": "taken@example.com", "password": "birdie42"}, ""))
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("an account with this email already exists", s.decodeError(w).Message)

	w = s.do(s.jsonRequest("POST", "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "wrong"}, ""))
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid email or password.", s.decodeError(w).Message)

	w = s.do(s.jsonRequest("POST", "/api/auth/refresh", map[string]string{"refresh_token": "good-refresh"}, ""))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "new-refresh")
}

func (s *ControllerTestSuite) TestReadURLOnlyForOwnAvatars() {
	w := s.do(s.jsonRequest("POST", "/api/avatars/read-url", map[string]string{"url": "https://cdn.loopr.test/public/user-1_17.png"}, "access"))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "public/user-1_17.png")

	w = s.do(s.jsonRequest("POST", "/api/avatars/read-url", map[string]string{"key": "public/user-2_17.png"}, "access"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(s.jsonRequest("POST", "/api/avatars/read-url", map[string]string{}, "access"))
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *ControllerTestSuite) TestCoursesAndRounds() {
	req := httptest.NewRequest("GET", "/api/courses/search?q=pebble", nil)
	req.Header.Set("Authorization", "Bearer access")
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Pebble Beach")

	req = httptest.NewRequest("GET", "/api/courses/42", nil)
	req.Header.Set("Authorization", "Bearer access")
	s.Equal(http.StatusNotFound, s.do(req).Code)

	w = s.do(s.jsonRequest("POST", "/api/rounds", map[string]interface{}{"courseId": 8621, "tee": "Blue", "holeOption": "Front 9"}, "access"))
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Contains(w.Body.String(), "round-1")

	w = s.do(s.jsonRequest("POST", "/api/rounds", map[string]interface{}{"courseId": 8621, "tee": "Gold"}, "access"))
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("tee", s.decodeError(w).Field)
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}
