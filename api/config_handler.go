package api

import (
	"net/http"

	"github.com/seenimoa/skillchart/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config *config.Config `json:"config"`
	Mode   string         `json:"mode"` // normalized chart mode in effect
}

// handleGetConfig returns the running configuration. It holds no secrets,
// but the storage path is blanked so the server's filesystem layout is not
// exposed.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := *s.cfg
	cfg.Storage.Path = ""
	cfg.API.CORSOrigins = append([]string(nil), s.cfg.API.CORSOrigins...)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config: &cfg,
			Mode:   s.mode.String(),
		},
	})
}
