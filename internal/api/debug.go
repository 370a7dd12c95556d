package api

import (
	"fmt"
	"net/http"
	"time"

	"morapack/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build":  buildinfo.Info(),
		"time":   time.Now().UTC().Format(time.RFC3339),
		"store":  s.Store.Name(),
		"broker": fmt.Sprintf("%T", s.Broker),
	})
}
