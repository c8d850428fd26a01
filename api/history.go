package api

import (
	"net/http"
	"strconv"

	"github.com/openclaw/qrconsent/store"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	kind := r.URL.Query().Get("kind")
	limit := queryInt(r, "limit", 50)

	recs, err := s.History.Recent(kind, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	limit := queryInt(r, "limit", 20)

	recs, err := s.History.Search(q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
