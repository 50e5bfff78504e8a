package routes

import (
	"loopr_server/controllers"
	"loopr_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up the profile and dashboard routes
func RegisterUserProfileRoutes(r *mux.Router, workflow *services.ProfileSyncWorkflow, userProfileService *services.UserProfileService, sessionService *services.SessionService) {
	controller := controllers.NewUserProfileController(workflow, userProfileService, sessionService)

	profileRouter := r.PathPrefix("/api/profile").Subrouter()
	profileRouter.HandleFunc("", controller.GetProfile).Methods("GET")
	profileRouter.HandleFunc("", controller.SaveProfile).Methods("PUT")
	profileRouter.HandleFunc("", controller.DeleteProfile).Methods("DELETE")

	r.HandleFunc("/api/dashboard", controller.GetDashboard).Methods("GET")
}
