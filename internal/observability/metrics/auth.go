package metrics

import (
	"strings"
	"time"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	obserrors "github.com/kec/eventhub/internal/observability/errors"
	"github.com/kec/eventhub/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

// AuthAttempt describes one login or signup round trip.
type AuthAttempt struct {
	Op       string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitAuthAttempt counts a login/signup outcome and records its latency.
func EmitAuthAttempt(sink statsd.Sink, in AuthAttempt) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"op":     in.Op,
		"result": in.Result,
	}
	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSessionState counts a session transition and updates the
// session.active gauge.
func EmitSessionState(sink statsd.Sink, st domainauth.State) {
	if sink == nil {
		return
	}
	tags := map[string]string{"state": st.Status.String()}
	active := 0.0
	if role, ok := st.Role(); ok {
		tags["role"] = role.String()
		tags["source"] = st.Source.String()
		active = 1
	}
	sink.Count("session.transition", 1, tags)
	sink.Gauge("session.active", active, nil)
}

// EmitStoredSessionDiscarded counts persisted sessions dropped on load.
func EmitStoredSessionDiscarded(sink statsd.Sink, cause error) {
	if sink == nil {
		return
	}
	sink.Count("session.store.discarded", 1, map[string]string{
		"error_class": obserrors.Classify(cause),
	})
}

// EmitGuardDecision counts route guard outcomes per required capability set.
func EmitGuardDecision(sink statsd.Sink, d domainauth.Decision, caps domainauth.CapabilitySet) {
	if sink == nil {
		return
	}
	sink.Count("guard.decision", 1, map[string]string{
		"decision": d.String(),
		"required": strings.ReplaceAll(caps.String(), ",", "+"),
	})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
