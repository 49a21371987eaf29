package microservice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Pinger is a backend that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names a backend probed by /readyz.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

type readinessReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthzHandler responds to liveness probes.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// readyzHandler pings every backend and answers 503 if any is unreachable.
func (s *CatalogServer) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	report := readinessReport{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for _, check := range s.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Str("check", check.Name).Msg("Readiness check failed.")
			report.Checks[check.Name] = err.Error()
			report.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		report.Checks[check.Name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
