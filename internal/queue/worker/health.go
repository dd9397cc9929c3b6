package worker

import "net/http"

// HealthHandler serves the worker's liveness/readiness probes on a
// plain mux; the worker process has no gin surface of its own.
func (w *Worker) HealthHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(rw http.ResponseWriter, _ *http.Request) {
		w.readyMu.RLock()
		ready := w.ready
		w.readyMu.RUnlock()

		if !ready {
			http.Error(rw, "not ready", http.StatusServiceUnavailable)
			return
		}

		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ready"))
	})

	return mux
}
