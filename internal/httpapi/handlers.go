package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
)

const qrSize = 320

// Reader is the read-only view of the store the HTTP API serves.
type Reader interface {
	ListTeams(ctx context.Context) ([]scoreboard.Team, error)
	Stats(ctx context.Context) (scoreboard.Stats, error)
}

type teamsResponse struct {
	Teams []scoreboard.Team `json:"teams"`
}

func ListTeams(teams Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := teams.ListTeams(r.Context())
		if err != nil {
			log.Error("list teams", zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "Failed to load teams")
			return
		}
		if list == nil {
			list = []scoreboard.Team{}
		}
		_ = WriteJSON(w, http.StatusOK, teamsResponse{Teams: list})
	}
}

func Stats(teams Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := teams.Stats(r.Context())
		if err != nil {
			log.Error("compute stats", zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "Failed to load stats")
			return
		}
		_ = WriteJSON(w, http.StatusOK, stats)
	}
}

// JoinURL is where the QR code points: publicURL/join when set, otherwise derived from
// the request, honoring X-Forwarded-Proto.
func JoinURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + "/join"
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + "/join"
}

func QRCode(publicURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(JoinURL(r, publicURL), qrcode.Medium, qrSize)
		if err != nil {
			log.Error("generate qr code", zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "QR generation failed")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
