package api

import (
	"errors"
	"net/http"

	"github.com/openclaw/qrconsent/generate"
	"github.com/openclaw/qrconsent/qr"
)

func (s *Server) handlePlain(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "text query parameter is required")
		return
	}
	s.render(w, r, generate.KindPlain, text, generate.PlainLevel)
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeError(w, http.StatusBadRequest, "target query parameter is required")
		return
	}
	site := r.URL.Query().Get("site")
	if site == "" {
		site = s.SiteName
	}

	payload, err := generate.ConsentPayload(target, site)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.render(w, r, generate.KindConsent, payload, generate.ConsentLevel)
}

func (s *Server) handleGoodboy(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, generate.KindGoodboy, generate.GoodboyPayload(), generate.GoodboyLevel)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, kind generate.Kind, payload string, level qr.Level) {
	png, err := s.Generator.Render(r.Context(), kind, payload, level)
	switch {
	case errors.Is(err, qr.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		s.Log.Error("render qr", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
