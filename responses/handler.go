package responses

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/runner"
)

// SessionIDInput is the custom-inputs key selecting an existing session.
// Absent, each invocation runs in a fresh session.
const SessionIDInput = "session_id"

// Handler serves an agent over the Responses protocol. One handler wraps one
// runner; the agent is constructed up front and injected, never built lazily
// inside the request path.
type Handler struct {
	runner *runner.Runner
	logger logging.Logger

	formatterName string
}

// NewHandler constructs a handler around a runner. formatterName identifies
// the post-processing node whose events are surfaced without announcement.
func NewHandler(r *runner.Runner, formatterName string, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handler{runner: r, logger: logger, formatterName: formatterName}
}

// Mux returns an http.ServeMux with the protocol routes mounted.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/invocations", h.HandleInvocation)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// HandleInvocation handles POST /invocations, streaming when the request
// asks for it and returning an accumulated Response otherwise.
func (h *Handler) HandleInvocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Input) == 0 {
		http.Error(w, "input must not be empty", http.StatusBadRequest)
		return
	}

	sessionID, userContent, err := h.prepareSession(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	runID, events, errs, err := h.runner.Run(r.Context(), sessionID, userContent)
	if err != nil {
		http.Error(w, fmt.Sprintf("run failed to start: %v", err), http.StatusInternalServerError)
		return
	}
	h.logger.Debug("responses.invocation.started", "run_id", runID, "session_id", sessionID, "stream", req.Stream)

	adapter := NewAdapter(h.formatterName)
	if req.Stream {
		h.streamResponse(w, adapter, events, errs)
		return
	}
	h.bufferedResponse(w, req, adapter, events, errs)
}

// prepareSession resolves or creates the session and extracts the user
// content for this turn. When a multi-message transcript arrives for a fresh
// session, the leading messages seed the session history and the last one
// becomes the live turn.
func (h *Handler) prepareSession(req Request) (string, core.Content, error) {
	sessionID := ""
	if v, ok := req.CustomInputs[SessionIDInput].(string); ok {
		sessionID = v
	}
	if sessionID == "" {
		sessionID = core.NewID()
	}

	store := h.runner.SessionStore()
	if _, err := store.Get(sessionID); err != nil {
		if _, err := store.Create(sessionID); err != nil {
			return "", core.Content{}, fmt.Errorf("create session: %w", err)
		}
		for _, item := range req.Input[:len(req.Input)-1] {
			ev := core.NewEvent("", item.Role)
			ev.Content = &core.Content{Role: item.Role, Parts: []core.Part{core.TextPart{Text: item.Content}}}
			if err := store.AppendEvent(sessionID, ev); err != nil {
				return "", core.Content{}, fmt.Errorf("seed session history: %w", err)
			}
		}
	}

	last := req.Input[len(req.Input)-1]
	return sessionID, core.Content{
		Role:  "user",
		Parts: []core.Part{core.TextPart{Text: last.Content}},
	}, nil
}

func (h *Handler) bufferedResponse(
	w http.ResponseWriter,
	req Request,
	adapter *Adapter,
	events <-chan core.Event,
	errs <-chan error,
) {
	var output []OutputItem
	for ev := range events {
		for _, se := range adapter.Translate(ev) {
			output = append(output, se.Item)
		}
	}

	if err := drainError(errs); err != nil && len(output) == 0 {
		http.Error(w, fmt.Sprintf("invocation failed: %v", err), http.StatusInternalServerError)
		return
	}

	custom := make(map[string]any, len(req.CustomInputs)+1)
	for k, v := range req.CustomInputs {
		custom[k] = v
	}
	custom["files"] = adapter.Files()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{Output: output, CustomOutputs: custom}); err != nil {
		h.logger.Error("responses.encode.failed", "error", err)
	}
}

func (h *Handler) streamResponse(
	w http.ResponseWriter,
	adapter *Adapter,
	events <-chan core.Event,
	errs <-chan error,
) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range events {
		for _, se := range adapter.Translate(ev) {
			data, err := json.Marshal(se)
			if err != nil {
				h.logger.Error("responses.stream.encode.failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}

	if err := drainError(errs); err != nil {
		h.logger.Error("responses.stream.run.failed", "error", err)
	}
}

// drainError returns the first run error, if any. The error channel is
// closed by the runner when the run finishes.
func drainError(errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
