package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/umar/horizon-chat/internal/auth"
	"github.com/umar/horizon-chat/internal/middleware"
	"github.com/umar/horizon-chat/internal/models"
)

type RouterConfig struct {
	Viewer     models.Viewer
	JWTSecret  string
	CORSOrigin string
	// Bus names the event bus in /health.
	Bus string
	// WS serves the UI event socket; nil leaves /ws unrouted.
	WS http.HandlerFunc
}

func NewRouter(s Session, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging)
	if cfg.CORSOrigin != "" {
		router.Use(middleware.CORS(cfg.CORSOrigin))
	}

	router.HandleFunc("/health", Health(s, cfg.Bus)).Methods("GET", "OPTIONS")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	if cfg.WS != nil {
		router.HandleFunc("/ws", cfg.WS).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(cfg.JWTSecret, cfg.Viewer))

	api.HandleFunc("/me", Me).Methods("GET")
	api.HandleFunc("/rooms", ListRooms(s)).Methods("GET")
	api.HandleFunc("/rooms/reload", ReloadRooms(s)).Methods("POST")
	api.HandleFunc("/rooms/{id}/activate", ActivateRoom(s)).Methods("POST")
	api.HandleFunc("/messages", GetMessages(s)).Methods("GET")
	api.HandleFunc("/messages", SendMessage(s)).Methods("POST")
	api.HandleFunc("/messages/{id}", DeleteMessage(s)).Methods("DELETE")
	api.HandleFunc("/draft", GetDraft(s)).Methods("GET")
	api.HandleFunc("/draft", PutDraft(s)).Methods("PUT")
	api.HandleFunc("/theme", GetTheme(s)).Methods("GET")
	api.HandleFunc("/theme", PutTheme(s)).Methods("PUT")

	return router
}
