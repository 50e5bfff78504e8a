package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/metrics"
	"loopr_server/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const courseAPITimeout = 10 * time.Second

// CourseService looks courses up in the golf course API
type CourseService struct {
	client *resty.Client
}

type courseSearchResponse struct {
	Courses []models.Course `json:"courses"`
}

type courseResponse struct {
	Course models.Course `json:"course"`
}

// NewCourseService builds a client for the course API at baseURL
func NewCourseService(baseURL, apiKey string) *CourseService {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(courseAPITimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Key "+apiKey)

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Log.Debug("Course API response",
			zap.String("url", resp.Request.URL),
			logger.WithStatus(resp.StatusCode()),
			logger.WithDuration(resp.Time()),
		)
		return nil
	})

	return &CourseService{client: client}
}

// SearchCourses finds courses matching query
func (cs *CourseService) SearchCourses(ctx context.Context, query string) ([]models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("query", "please enter a course name to search")
	}

	var result courseSearchResponse
	resp, err := cs.client.R().
		SetContext(ctx).
		SetQueryParam("search_query", query).
		SetResult(&result).
		Get("/search")
	recordCourseRequest("search", resp, err)
	if err != nil {
		return nil, apperrors.UpstreamFailed("course search request failed", err)
	}
	if resp.IsError() {
		return nil, courseAPIError(resp, "course search")
	}

	if result.Courses == nil {
		return []models.Course{}, nil
	}
	return result.Courses, nil
}

// GetCourse loads one course with its tees
func (cs *CourseService) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	if courseID <= 0 {
		return nil, apperrors.InvalidInput("courseId", "course id must be positive")
	}

	var result courseResponse
	resp, err := cs.client.R().
		SetContext(ctx).
		SetPathParam("courseId", strconv.Itoa(courseID)).
		SetResult(&result).
		Get("/courses/{courseId}")
	recordCourseRequest("course", resp, err)
	if err != nil {
		return nil, apperrors.UpstreamFailed("course lookup request failed", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperrors.NotFound("course")
	}
	if resp.IsError() {
		return nil, courseAPIError(resp, "course lookup")
	}
	if result.Course.ID == 0 {
		result.Course.ID = courseID
	}
	return &result.Course, nil
}

func courseAPIError(resp *resty.Response, op string) error {
	logger.Log.Warn("Course API returned an error",
		zap.String("op", op),
		logger.WithStatus(resp.StatusCode()),
	)
	return apperrors.UpstreamFailed(op+" failed with status "+strconv.Itoa(resp.StatusCode()), nil)
}

func recordCourseRequest(op string, resp *resty.Response, err error) {
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	metrics.Get().CourseAPIRequestsTotal.WithLabelValues(op, status).Inc()
}
