package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/hub"
	"github.com/DoyleJ11/live-scoreboard/internal/ws"
)

type Deps struct {
	Hub       *hub.Hub
	Teams     Reader
	Logger    *zap.Logger
	PublicURL string
	WS        ws.Options
}

func SetupRoutes(d Deps) http.Handler {
	base := d.Logger
	if base == nil {
		base = zap.NewNop()
	}
	log := base.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/qr", QRCode(d.PublicURL, log))
	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", ListTeams(d.Teams, log))
		r.Get("/stats", Stats(d.Teams, log))
	})

	// Realtime
	r.Get("/ws", ws.Handler(d.Hub, d.WS, base))
	return r
}
