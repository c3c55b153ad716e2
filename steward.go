// Package steward provides a high-level façade over the supervisor agent and
// its serving layer. Most applications interact with this package by:
//  1. Creating a Steward via New() with a foundation model and sub-agent
//     descriptors (optionally overriding the default in-memory stores)
//  2. Asking questions synchronously (Ask) or serving the Responses-style
//     HTTP protocol (Handler)
//
// The façade delegates orchestration to supervisor.Supervisor while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply durable
// store implementations and a structured logger.
package steward

import (
	"context"
	"net/http"
	"strings"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/model"
	"github.com/stewardai/steward/responses"
	"github.com/stewardai/steward/supervisor"
)

// Options configures the Steward instance. It is a re-export of the
// supervisor options so callers only import this package for common setups.
type Options = supervisor.Options

// Steward aggregates the supervisor agent system and its serving adapter.
type Steward struct {
	sup     *supervisor.Supervisor
	handler *responses.Handler
}

// New creates a new Steward around the given foundation model. Any unset
// store is initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) (*Steward, error) {
	sup, err := supervisor.New(llm, optFns...)
	if err != nil {
		return nil, err
	}

	return &Steward{
		sup:     sup,
		handler: responses.NewHandler(sup.Runner(), supervisor.FormatterName, logging.NoOpLogger{}),
	}, nil
}

// Supervisor exposes the underlying agent system.
func (s *Steward) Supervisor() *supervisor.Supervisor { return s.sup }

// Handler returns an http.Handler serving the Responses-style protocol.
func (s *Steward) Handler() http.Handler { return s.handler.Mux() }

// Ask runs a single question through the supervisor in a fresh session and
// returns the final answer text. It drains the event stream, so it is
// suitable for request-response callers that do not need streaming.
func (s *Steward) Ask(ctx context.Context, question string) (string, error) {
	sessionID := core.NewID()
	if _, err := s.sup.Runner().SessionStore().Create(sessionID); err != nil {
		return "", err
	}

	userContent := core.Content{
		Role:  "user",
		Parts: []core.Part{core.TextPart{Text: question}},
	}

	_, events, errs, err := s.sup.Runner().Run(ctx, sessionID, userContent)
	if err != nil {
		return "", err
	}

	var answer string
	for ev := range events {
		if ev.Content == nil || ev.Content.Role != "assistant" {
			continue
		}
		if ev.Partial != nil && *ev.Partial {
			continue
		}
		var sb strings.Builder
		for _, p := range ev.Content.Parts {
			if tp, ok := p.(core.TextPart); ok {
				sb.WriteString(tp.Text)
			}
		}
		if text := sb.String(); text != "" {
			answer = text
		}
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return answer, nil
}
