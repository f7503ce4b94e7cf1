package handlers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	datastar "github.com/starfederation/datastar-go/datastar"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"lycan/internal/game"
)

// StreamMatch streams a match's domain events over SSE. The viewer query
// parameter scopes private reveals: a player only receives events addressed
// to them (plus broadcasts), while the moderator viewpoint receives
// everything.
func (h *Handler) StreamMatch(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	viewer := moderatorParam(r)

	if _, err := h.store.GetMatch(code); err != nil {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	log.Printf("SSE connection established for match %s (viewer %q)", code, viewer)

	sse := datastar.NewSSE(w, r)

	events := h.eventBus.Subscribe(code)
	defer h.eventBus.Unsubscribe(code, events)

	// Keepalive ping so idle connections survive proxies and browsers.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("SSE connection closed for match %s", code)
			return
		case <-heartbeat.C:
			if _, err := h.store.GetMatch(code); err != nil {
				log.Printf("match %s no longer exists, closing SSE", code)
				return
			}
			if err := sse.Send("keepalive", []string{fmt.Sprintf(`{"time":%q}`, time.Now().Format(time.RFC3339))}); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Target != "" && viewer != game.ModeratorViewer && ev.Target != viewer {
				continue
			}
			err := sse.MarshalAndPatchSignals(map[string]any{
				"event": map[string]any{
					"type": ev.Type,
					"data": ev.Data,
					"at":   ev.At,
				},
			})
			if err != nil {
				log.Printf("failed to stream event %s to match %s: %v", ev.Type, code, err)
				return
			}
		}
	}
}

// JoinQR serves a QR code for the match join URL as base64-encoded PNG.
func (h *Handler) JoinQR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := h.store.GetMatch(code); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	url := fmt.Sprintf("%s/match/%s", baseURL(r), code)
	encoded, err := generateQRCode(url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "qr": encoded})
}

// generateQRCode renders the URL as a PNG QR code, base64 encoded.
func generateQRCode(url string) (string, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	tmpFile := fmt.Sprintf("%s/qr_%d.png", os.TempDir(), time.Now().UnixNano())
	wr, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create writer: %w", err)
	}
	if err := qrc.Save(wr); err != nil {
		return "", fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return "", fmt.Errorf("failed to read QR code file: %w", err)
	}
	os.Remove(tmpFile)

	return base64.StdEncoding.EncodeToString(data), nil
}

// baseURL reconstructs the externally visible base URL from the request.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}
