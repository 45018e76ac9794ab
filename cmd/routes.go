package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"focusService/internal/auth"
)

func (app *Config) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Use(middleware.Heartbeat("/ping"))

	timerHandler := NewTimerHandler(app.Engine, app.Log)
	authHandler := NewAuthHandler(app.AuthRepo, app.Log)

	// Anyone authenticated can observe the timer.
	mux.With(auth.RequireAnyUserRole(app.AuthRepo)).Get("/timer/state", timerHandler.GetState)
	mux.With(auth.RequireAnyUserRole(app.AuthRepo)).Get("/timer/events", timerHandler.StreamEvents)
	mux.With(auth.RequireAnyUserRole(app.AuthRepo)).Get("/timer/alerts", timerHandler.StreamAlerts)

	// Only admins control it.
	mux.With(auth.RequireAdminRole(app.AuthRepo)).Route("/timer", func(r chi.Router) {
		r.Post("/start", timerHandler.Start)
		r.Post("/pause", timerHandler.Pause)
		r.Post("/resume", timerHandler.Resume)
		r.Post("/resume/{sessionID}", timerHandler.SwitchTo)
		r.Post("/complete", timerHandler.Complete)
		r.Post("/discard", timerHandler.Discard)
		r.Post("/extend", timerHandler.Extend)
		r.Post("/add-minute", timerHandler.AddMinute)
		r.Post("/subtract-minute", timerHandler.SubtractMinute)
	})

	// Authentication routes
	mux.Post("/auth/register", authHandler.RegisterUser)
	mux.Post("/auth/login", authHandler.LoginUser)

	// Admin registration (development/testing only)
	mux.Post("/auth/register-admin", authHandler.RegisterAdminUser)

	mux.With(auth.RequireAnyUserRole(app.AuthRepo)).Get("/auth/profile", authHandler.GetProfile)

	return mux
}
