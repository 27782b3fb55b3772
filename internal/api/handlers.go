package api

import (
	"log"
	"net/http"

	"github.com/sprite-ai/beautyscan/internal/analyzer"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Analyze ---

// handleAnalyze streams the model's response as chunked text/plain. Until
// the first chunk arrives a failure is still reported as a JSON error; after
// that the connection is aborted so the client sees a broken stream instead
// of a clean end.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.AnalyzeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	img, err := analyzer.DecodeBase64(req.Image)
	if err != nil {
		writeError(w, analyzer.HTTPStatus(err), analyzer.UserMessage(err))
		return
	}

	if s.analyzer == nil {
		log.Printf("%s: analysis requested but no API key is configured", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "the API key is not configured on the server")
		return
	}

	fragments, err := s.analyzer.Analyze(r.Context(), img)
	if err != nil {
		log.Printf("%s: analyze: %v", RequestID(r.Context()), err)
		writeError(w, analyzer.HTTPStatus(err), analyzer.UserMessage(err))
		return
	}

	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		started = true
	}
	flusher, _ := w.(http.Flusher)

	for f := range fragments {
		if f.Err != nil {
			log.Printf("%s: stream: %v", RequestID(r.Context()), f.Err)
			if !started {
				writeError(w, analyzer.HTTPStatus(f.Err), analyzer.UserMessage(f.Err))
				return
			}
			panic(http.ErrAbortHandler)
		}
		if !started {
			start()
		}
		if _, err := w.Write([]byte(f.Text)); err != nil {
			log.Printf("%s: write: %v", RequestID(r.Context()), err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if !started {
		start()
	}
}
