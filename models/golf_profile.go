package models

import "time"

// ProfileRecord is one user's golf profile, keyed by the identity id
type ProfileRecord struct {
	ID             string             `dynamodbav:"id" json:"id"`                                             // Partition key, equals the account id
	Name           string             `dynamodbav:"name" json:"name"`                                         // Display name, stored trimmed
	Handedness     Handedness         `dynamodbav:"handedness" json:"handedness"`                             // Right / Left
	PreferredUnits Units              `dynamodbav:"preferred_units" json:"preferred_units"`                   // Yards / Meters
	SwingTendency  SwingTendency      `dynamodbav:"swing_tendency" json:"swing_tendency"`                     // Typical shot shape
	Handicap       *float64           `dynamodbav:"handicap" json:"handicap"`                                 // nil means no handicap
	ClubDistances  map[string]float64 `dynamodbav:"club_distances" json:"club_distances"`                     // Club label -> yardage
	ProfilePicture *string            `dynamodbav:"profile_picture" json:"profile_picture"`                   // nil means placeholder
	CreatedAt      time.Time          `dynamodbav:"created_at,omitempty" json:"created_at,omitempty"`         // Set on first insert only
	UpdatedAt      time.Time          `dynamodbav:"updated_at" json:"updated_at"`                             // Set on every save
}

// NormalizePictureURL treats an empty address the same as no address
func NormalizePictureURL(url *string) *string {
	if url == nil || *url == "" {
		return nil
	}
	return url
}

// Normalize fixes up values read from the table
func (p *ProfileRecord) Normalize() {
	p.ProfilePicture = NormalizePictureURL(p.ProfilePicture)
	if p.ClubDistances == nil {
		p.ClubDistances = map[string]float64{}
	}
}

// PendingImage is a freshly picked photo that has not been uploaded yet
type PendingImage struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Dashboard is the summary shown on the home screen
type Dashboard struct {
	Greeting       string        `json:"greeting"`
	Name           string        `json:"name"`
	ProfilePicture *string       `json:"profile_picture"`
	UsePlaceholder bool          `json:"use_placeholder"`
	Handedness     Handedness    `json:"handedness,omitempty"`
	PreferredUnits Units         `json:"preferred_units,omitempty"`
	SwingTendency  SwingTendency `json:"swing_tendency,omitempty"`
	Handicap       *float64      `json:"handicap,omitempty"`
	NeedsSetup     bool          `json:"needs_setup"`
}
