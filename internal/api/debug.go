package api

import (
	"net/http"
	"time"

	"itinopt/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"port":             s.Config.Port,
			"authMode":         s.Config.Auth.Mode,
			"rateRps":          s.Config.RateRPS,
			"rateBurst":        s.Config.RateBurst,
			"logLevel":         s.Config.LogLevel,
			"hasDatabaseUrl":   s.Config.DatabaseURL != "",
			"hasRedisUrl":      s.Config.RedisURL != "",
			"optimizerDefault": settingsFromConfig(s.Config.Optimizer).asMap(),
		},
	})
}
