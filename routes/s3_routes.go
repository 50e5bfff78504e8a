package routes

import (
	"loopr_server/controllers"
	"loopr_server/services"

	"github.com/gorilla/mux"
)

// RegisterS3Routes sets up routes for avatar storage
func RegisterS3Routes(r *mux.Router, s3Service *services.S3Service, sessionService *services.SessionService) {
	controller := controllers.NewS3Controller(s3Service, sessionService)

	r.HandleFunc("/api/avatars/read-url", controller.GetPresignedReadURL).Methods("POST")
}
