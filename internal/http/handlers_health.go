package httpx

import "net/http"

type healthResponse struct {
	Status    string `json:"status"`
	Session   string `json:"session,omitempty"`
	Synthetic bool   `json:"synthetic"`
}

// HealthHandler answers liveness/readiness checks. It always reports ok:
// the process is healthy while the session is still initializing. The
// session status is included for operators.
type HealthHandler struct {
	Sessions  StateSource // optional
	Synthetic bool
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := healthResponse{Status: "ok", Synthetic: h.Synthetic}
	if h.Sessions != nil {
		resp.Session = h.Sessions.State().Status.String()
	}
	WriteJSON(w, http.StatusOK, resp)
}
