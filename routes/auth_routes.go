package routes

import (
	"loopr_server/controllers"
	"loopr_server/services"

	"github.com/gorilla/mux"
)

// RegisterAuthRoutes sets up account and session routes under /api/auth
func RegisterAuthRoutes(r *mux.Router, accountService *services.AccountService, sessionService *services.SessionService) {
	controller := controllers.NewAuthController(accountService, sessionService)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", controller.SignUp).Methods("POST")
	authRouter.HandleFunc("/login", controller.Login).Methods("POST")
	authRouter.HandleFunc("/refresh", controller.Refresh).Methods("POST")
	authRouter.HandleFunc("/logout", controller.Logout).Methods("POST")
}
