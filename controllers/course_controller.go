package controllers

import (
	"context"
	"net/http"
	"strconv"

	"loopr_server/apperrors"
	"loopr_server/models"
	"loopr_server/utils"

	"github.com/gorilla/mux"
)

// CourseFinder looks courses up
type CourseFinder interface {
	SearchCourses(ctx context.Context, query string) ([]models.Course, error)
	GetCourse(ctx context.Context, courseID int) (*models.Course, error)
}

// RoundStarter records and lists rounds
type RoundStarter interface {
	StartRound(ctx context.Context, userID string, course *models.Course, teeName, holeOption string) (*models.Round, error)
	ListRounds(ctx context.Context, userID string) ([]models.Round, error)
}

// CourseController handles course search and game setup
type CourseController struct {
	Courses  CourseFinder
	Rounds   RoundStarter
	Sessions SessionResolver
}

func NewCourseController(courses CourseFinder, rounds RoundStarter, sessions SessionResolver) *CourseController {
	return &CourseController{Courses: courses, Rounds: rounds, Sessions: sessions}
}

// SearchCourses handles GET /api/courses/search?q=
func (c *CourseController) SearchCourses(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(c.Sessions, r); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	courses, err := c.Courses.SearchCourses(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// GetCourse handles GET /api/courses/{courseId}
func (c *CourseController) GetCourse(w http.ResponseWriter, r *http.Request) {
	if _, err := requireSession(c.Sessions, r); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	courseID, err := strconv.Atoi(mux.Vars(r)["courseId"])
	if err != nil {
		utils.WriteError(w, r, apperrors.InvalidInput("courseId", "course id must be a number"))
		return
	}

	course, err := c.Courses.GetCourse(r.Context(), courseID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, course)
}

type startRoundBody struct {
	CourseID   int    `json:"courseId"`
	Tee        string `json:"tee"`
	HoleOption string `json:"holeOption"`
}

// StartRound handles POST /api/rounds
func (c *CourseController) StartRound(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	var body startRoundBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if body.HoleOption == "" {
		body.HoleOption = models.HoleOptionFull18
	}

	course, err := c.Courses.GetCourse(r.Context(), body.CourseID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	round, err := c.Rounds.StartRound(r.Context(), session.UserID, course, body.Tee, body.HoleOption)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, round)
}

// ListRounds handles GET /api/rounds
func (c *CourseController) ListRounds(w http.ResponseWriter, r *http.Request) {
	session, err := requireSession(c.Sessions, r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	rounds, err := c.Rounds.ListRounds(r.Context(), session.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"rounds": rounds})
}
