package routes

import (
	"loopr_server/controllers"
	"loopr_server/services"

	"github.com/gorilla/mux"
)

// RegisterCourseRoutes sets up course search and round routes
func RegisterCourseRoutes(r *mux.Router, courseService *services.CourseService, roundService *services.RoundService, sessionService *services.SessionService) {
	controller := controllers.NewCourseController(courseService, roundService, sessionService)

	courseRouter := r.PathPrefix("/api/courses").Subrouter()
	courseRouter.HandleFunc("/search", controller.SearchCourses).Methods("GET")
	courseRouter.HandleFunc("/{courseId:[0-9]+}", controller.GetCourse).Methods("GET")

	roundRouter := r.PathPrefix("/api/rounds").Subrouter()
	roundRouter.HandleFunc("", controller.StartRound).Methods("POST")
	roundRouter.HandleFunc("", controller.ListRounds).Methods("GET")
}
