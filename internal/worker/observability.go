package worker

import (
	"encoding/json"
	"net/http"
)

const metricsContentType = "text/plain; version=0.0.4; charset=utf-8"

func (w *Worker) ObservabilityHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "provider": w.cfg.NameVerifyProvider})
	})
	mux.HandleFunc("GET /metrics", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", metricsContentType)
		_, _ = rw.Write([]byte(w.metrics.Render()))
	})
	return mux
}
