package models

import "time"

// Course mirrors the course object returned by the golf course API
type Course struct {
	ID         int            `json:"id"`
	ClubName   string         `json:"club_name"`
	CourseName string         `json:"course_name"`
	Location   CourseLocation `json:"location"`
	Tees       CourseTees     `json:"tees"`
}

type CourseLocation struct {
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type CourseTees struct {
	Female []Tee `json:"female,omitempty"`
	Male   []Tee `json:"male,omitempty"`
}

// Tee is one tee box on a course
type Tee struct {
	TeeName       string  `json:"tee_name" dynamodbav:"tee_name"`
	CourseRating  float64 `json:"course_rating,omitempty" dynamodbav:"course_rating,omitempty"`
	SlopeRating   int     `json:"slope_rating,omitempty" dynamodbav:"slope_rating,omitempty"`
	TotalYards    int     `json:"total_yards,omitempty" dynamodbav:"total_yards,omitempty"`
	NumberOfHoles int     `json:"number_of_holes,omitempty" dynamodbav:"number_of_holes,omitempty"`
	ParTotal      int     `json:"par_total,omitempty" dynamodbav:"par_total,omitempty"`
}

// FindTee looks the tee up in both the male and female sets
func (c Course) FindTee(name string) (Tee, bool) {
	for _, t := range c.Tees.Male {
		if t.TeeName == name {
			return t, true
		}
	}
	for _, t := range c.Tees.Female {
		if t.TeeName == name {
			return t, true
		}
	}
	return Tee{}, false
}

// Round is a game started from the game setup screen
type Round struct {
	RoundID    string    `dynamodbav:"roundId" json:"roundId"` // Partition key
	UserID     string    `dynamodbav:"userId" json:"userId"`   // Indexed via UserIndex GSI
	CourseID   int       `dynamodbav:"courseId" json:"courseId"`
	ClubName   string    `dynamodbav:"clubName,omitempty" json:"clubName,omitempty"`
	CourseName string    `dynamodbav:"courseName,omitempty" json:"courseName,omitempty"`
	Tee        Tee       `dynamodbav:"tee" json:"tee"`
	HoleOption string    `dynamodbav:"holeOption" json:"holeOption"`
	FirstHole  int       `dynamodbav:"firstHole" json:"firstHole"`
	LastHole   int       `dynamodbav:"lastHole" json:"lastHole"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"createdAt"`
}
