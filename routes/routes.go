package routes

import (
	"net/http"

	"loopr_server/controllers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up the public routes of the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// RegisterSocketRoutes mounts the socket.io endpoint
func RegisterSocketRoutes(r *mux.Router, handler http.Handler) {
	r.PathPrefix("/socket.io/").Handler(handler)
}
