package services

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/models"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// IdentityProvider resolves who is calling
type IdentityProvider interface {
	CurrentSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
	RefreshSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

// ProfileRecordStore writes profile rows keyed by id
type ProfileRecordStore interface {
	UpsertProfile(ctx context.Context, profile *models.ProfileRecord) (*models.ProfileRecord, error)
}

// AvatarStorage stores profile pictures and hands out their public addresses
type AvatarStorage interface {
	UploadAvatar(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) (string, error)
}

// ProfileNotifier is told about every successful save
type ProfileNotifier interface {
	ProfileUpdated(userID string, profile *models.ProfileRecord)
}

// SaveState is a step of one save invocation
type SaveState string

const (
	StateIdle              SaveState = "idle"
	StateResolvingIdentity SaveState = "resolving_identity"
	StateUploadingImage    SaveState = "uploading_image"
	StateWriting           SaveState = "writing"
	StateSucceeded         SaveState = "succeeded"
	StateFailed            SaveState = "failed"
)

// SaveObserver receives state transitions. userID is empty until identity is resolved;
// err is only set for StateFailed.
type SaveObserver func(userID string, state SaveState, err error)

// ProfileForm holds the raw values from the profile setup form
type ProfileForm struct {
	Name           string            `json:"name"`
	Handedness     string            `json:"handedness"`
	PreferredUnits string            `json:"preferred_units"`
	SwingTendency  string            `json:"swing_tendency"`
	Handicap       string            `json:"handicap"`
	ClubDistances  map[string]string `json:"club_distances"`
}

// SaveProfileRequest is everything one save needs
type SaveProfileRequest struct {
	Credentials     models.Credentials
	Form            ProfileForm
	Image           *models.PendingImage
	PreviousPicture *string
}

// SaveProfileResult is returned on success
type SaveProfileResult struct {
	Profile        *models.ProfileRecord `json:"profile"`
	ProfilePicture *string               `json:"profile_picture"`
	Session        *models.Session       `json:"session"`
}

// ProfileSyncWorkflow performs the "save my profile" action: resolve identity,
// optionally upload a new avatar, then upsert the profile row
type ProfileSyncWorkflow struct {
	identity  IdentityProvider
	store     ProfileRecordStore
	avatars   AvatarStorage
	notifier  ProfileNotifier
	observers []SaveObserver
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type WorkflowOption func(*ProfileSyncWorkflow)

func WithClock(now func() time.Time) WorkflowOption {
	return func(w *ProfileSyncWorkflow) { w.now = now }
}

func WithObserver(o SaveObserver) WorkflowOption {
	return func(w *ProfileSyncWorkflow) { w.observers = append(w.observers, o) }
}

func WithNotifier(n ProfileNotifier) WorkflowOption {
	return func(w *ProfileSyncWorkflow) { w.notifier = n }
}

func NewProfileSyncWorkflow(identity IdentityProvider, store ProfileRecordStore, avatars AvatarStorage, opts ...WorkflowOption) *ProfileSyncWorkflow {
	w := &ProfileSyncWorkflow{
		identity: identity,
		store:    store,
		avatars:  avatars,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// validatedForm is a ProfileForm after parsing
type validatedForm struct {
	name          string
	handedness    models.Handedness
	units         models.Units
	swing         models.SwingTendency
	handicap      *float64
	clubDistances map[string]float64
}

// Save runs one save. Every failure is an *apperrors.Error and nothing is retried.
// When identity resolution rotated the caller's tokens and a later step fails, the
// returned result is non-nil and carries only the new Session so the caller can
// retry with it.
func (w *ProfileSyncWorkflow) Save(ctx context.Context, req SaveProfileRequest) (*SaveProfileResult, error) {
	w.emit("", StateIdle, nil)

	form, err := validateForm(req.Form)
	if err != nil {
		return nil, w.fail("", err)
	}
	if req.Image != nil {
		if err := prepareImage(req.Image); err != nil {
			return nil, w.fail("", err)
		}
	}

	w.emit("", StateResolvingIdentity, nil)
	session, rotated, err := w.resolveIdentity(ctx, req.Credentials)
	if err != nil {
		return nil, w.fail("", err)
	}
	userID := session.UserID

	// partial hands a rotated session back with the error
	partial := func() *SaveProfileResult {
		if rotated {
			return &SaveProfileResult{Session: session}
		}
		return nil
	}

	if !w.acquire(userID) {
		return partial(), w.fail(userID, apperrors.SaveInProgress(userID))
	}
	defer w.release(userID)

	picture := models.NormalizePictureURL(req.PreviousPicture)
	if req.Image != nil {
		w.emit(userID, StateUploadingImage, nil)
		uploaded, err := w.uploadImage(ctx, userID, req.Image)
		if err != nil {
			return partial(), w.fail(userID, err)
		}
		picture = &uploaded
	}

	w.emit(userID, StateWriting, nil)
	record := &models.ProfileRecord{
		ID:             userID,
		Name:           form.name,
		Handedness:     form.handedness,
		PreferredUnits: form.units,
		SwingTendency:  form.swing,
		Handicap:       form.handicap,
		ClubDistances:  form.clubDistances,
		ProfilePicture: picture,
		UpdatedAt:      w.now().UTC(),
	}

	stored, err := w.store.UpsertProfile(ctx, record)
	if err != nil {
		return partial(), w.fail(userID, classifyStoreError(err))
	}

	w.emit(userID, StateSucceeded, nil)
	if w.notifier != nil {
		w.notifier.ProfileUpdated(userID, stored)
	}

	return &SaveProfileResult{
		Profile:        stored,
		ProfilePicture: picture,
		Session:        session,
	}, nil
}

// resolveIdentity checks the access token first and only redeems the refresh
// token when that check fails. rotated reports whether new tokens were issued.
func (w *ProfileSyncWorkflow) resolveIdentity(ctx context.Context, creds models.Credentials) (*models.Session, bool, error) {
	if creds.Empty() {
		return nil, false, apperrors.NotAuthenticated("no credentials presented", nil)
	}

	var (
		session *models.Session
		err     error
		rotated bool
	)
	if creds.AccessToken != "" {
		session, err = w.identity.CurrentSession(ctx, creds)
	}
	if creds.RefreshToken != "" && (creds.AccessToken == "" || err != nil || session == nil) {
		session, err = w.identity.RefreshSession(ctx, creds)
		rotated = err == nil
	}
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindNotAuthenticated {
			return nil, false, appErr
		}
		return nil, false, apperrors.NotAuthenticated("could not resolve session", err)
	}
	if session == nil || session.UserID == "" {
		return nil, false, apperrors.NotAuthenticated("no active session", nil)
	}
	return session, rotated, nil
}

func (w *ProfileSyncWorkflow) uploadImage(ctx context.Context, userID string, img *models.PendingImage) (string, error) {
	key := AvatarKey(userID, w.now(), img)

	if err := w.avatars.UploadAvatar(ctx, key, img.Data, img.ContentType); err != nil {
		return "", asKind(err, apperrors.KindUploadFailed, "avatar upload failed")
	}

	publicURL, err := w.avatars.PublicURL(key)
	if err != nil {
		return "", asKind(err, apperrors.KindUploadFailed, "could not resolve avatar address")
	}
	if publicURL == "" {
		return "", apperrors.UploadFailed("avatar address is empty", nil)
	}
	return publicURL, nil
}

func (w *ProfileSyncWorkflow) acquire(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[userID]; busy {
		return false
	}
	w.inFlight[userID] = struct{}{}
	return true
}

func (w *ProfileSyncWorkflow) release(userID string) {
	w.mu.Lock()
	delete(w.inFlight, userID)
	w.mu.Unlock()
}

func (w *ProfileSyncWorkflow) emit(userID string, state SaveState, err error) {
	for _, o := range w.observers {
		o(userID, state, err)
	}
}

func (w *ProfileSyncWorkflow) fail(userID string, err error) error {
	logger.Log.Warn("Profile save failed",
		logger.WithUserID(userID),
		zap.String("kind", string(apperrors.KindOf(err))),
		zap.Error(err),
	)
	w.emit(userID, StateFailed, err)
	return err
}

// AvatarKey builds a storage key unique per user and instant:
// public/{userID}_{unixMillis}.{ext}
func AvatarKey(userID string, at time.Time, img *models.PendingImage) string {
	return fmt.Sprintf("public/%s_%d.%s", userID, at.UnixMilli(), imageExtension(img))
}

// imageExtension prefers the sniffed content, then the content type, then the
// file name
func imageExtension(img *models.PendingImage) string {
	if len(img.Data) > 0 {
		if ext := strings.TrimPrefix(mimetype.Detect(img.Data).Extension(), "."); ext != "" {
			return ext
		}
	}
	if mt := mimetype.Lookup(img.ContentType); mt != nil {
		if ext := strings.TrimPrefix(mt.Extension(), "."); ext != "" {
			return ext
		}
	}
	name := img.FileName
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."); ext != "" {
		return ext
	}
	return "jpg"
}

// prepareImage checks the picked file is an image. The stored content type is
// always the sniffed one.
func prepareImage(img *models.PendingImage) error {
	if len(img.Data) == 0 {
		return apperrors.InvalidInput("image", "image is empty")
	}
	detected := mimetype.Detect(img.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return apperrors.InvalidInput("image", "file is not an image ("+detected.String()+")")
	}
	img.ContentType = detected.String()
	return nil
}

func validateForm(f ProfileForm) (*validatedForm, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name", "please enter your full name")
	}

	handedness := models.Handedness(f.Handedness)
	if !handedness.Valid() {
		return nil, apperrors.InvalidInput("handedness", "handedness must be one of "+models.JoinOptions(models.HandednessOptions))
	}

	units := models.Units(f.PreferredUnits)
	if f.PreferredUnits == "" {
		units = models.UnitsYards
	}
	if !units.Valid() {
		return nil, apperrors.InvalidInput("preferred_units", "preferred units must be one of "+models.JoinOptions(models.UnitsOptions))
	}

	swing := models.SwingTendency(f.SwingTendency)
	if !swing.Valid() {
		return nil, apperrors.InvalidInput("swing_tendency", "swing tendency must be one of "+models.JoinOptions(models.SwingTendencyOptions))
	}

	clubs := make(map[string]float64, len(f.ClubDistances))
	for club, raw := range f.ClubDistances {
		if !models.IsRosterClub(club) {
			return nil, apperrors.InvalidInput("club_distances", fmt.Sprintf("unknown club %q", club))
		}
		yards, ok := parseOptionalNumber(raw)
		if !ok {
			continue
		}
		if yards < 0 {
			return nil, apperrors.InvalidInput("club_distances", fmt.Sprintf("distance for %s cannot be negative", club))
		}
		clubs[club] = yards
	}

	var handicap *float64
	if h, ok := parseOptionalNumber(f.Handicap); ok {
		handicap = &h
	}

	return &validatedForm{
		name:          name,
		handedness:    handedness,
		units:         units,
		swing:         swing,
		handicap:      handicap,
		clubDistances: clubs,
	}, nil
}

// parseOptionalNumber returns false for blank or unparseable input so it is
// stored as no value rather than zero
func parseOptionalNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// classifyStoreError keeps the store's own classification for the kinds a write
// can fail with and treats anything else as the store being unavailable
func classifyStoreError(err error) error {
	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Kind {
		case apperrors.KindPermissionDenied, apperrors.KindInvalidInput, apperrors.KindStoreUnavailable:
			return appErr
		}
	}
	return apperrors.StoreUnavailable("profile write failed", err)
}

func asKind(err error, kind apperrors.Kind, message string) error {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind == kind {
		return appErr
	}
	return &apperrors.Error{Kind: kind, Message: message, Err: err}
}
