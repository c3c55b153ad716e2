package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/flow"
	"github.com/stewardai/steward/model"
)

// DefaultTokenBudget is the estimated context size that triggers history
// compaction.
const DefaultTokenBudget = 90000

// DefaultKeepMessages is how many trailing messages survive compaction intact.
const DefaultKeepMessages = 6

// charsPerToken is the crude estimation ratio used for budgeting. Exact
// tokenization is provider-specific and not worth the dependency here.
const charsPerToken = 4

const summaryPrompt = `Summarize the conversation below for use as context in a
continuing session. Preserve: user goals, data already retrieved (with key
figures), file paths written, and decisions made. Be concise; output only the
summary.`

// SummarizationOptions configures the summarization middleware.
type SummarizationOptions struct {
	TokenBudget  int
	KeepMessages int
}

// Summarization compacts conversation history once its estimated token count
// exceeds the budget, replacing older messages with a model-generated summary
// while keeping the most recent messages verbatim. Displaced history is
// archived to the memory store.
type Summarization struct {
	flow.PassthroughMiddleware
	llm          model.Model
	tokenBudget  int
	keepMessages int
}

// NewSummarization constructs the summarization middleware. The model is used
// to generate summaries and is typically the same one backing the agent.
func NewSummarization(llm model.Model, optFns ...func(o *SummarizationOptions)) *Summarization {
	opts := SummarizationOptions{
		TokenBudget:  DefaultTokenBudget,
		KeepMessages: DefaultKeepMessages,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Summarization{
		llm:          llm,
		tokenBudget:  opts.TokenBudget,
		keepMessages: opts.KeepMessages,
	}
}

// Name returns the middleware identifier.
func (s *Summarization) Name() string { return "summarize" }

// RequestProcessor returns the compaction processor.
func (s *Summarization) RequestProcessor() flow.RequestProcessor { return s }

// ProcessRequest compacts req.Contents in place when over budget.
func (s *Summarization) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent flow.FlowAgent) error {
	if len(req.Contents) == 0 {
		return nil
	}

	estimated := estimateTokens(req.Contents)
	if estimated <= s.tokenBudget {
		return nil
	}

	if skipRequested(runCtx) {
		runCtx.LogDebug("middleware.summarize.skipped", "estimated_tokens", estimated)
		return nil
	}

	// Contents[0] is the system message assembled by the contents processor.
	system := req.Contents[0]
	history := req.Contents[1:]
	if len(history) <= s.keepMessages {
		return nil
	}

	cut := len(history) - s.keepMessages
	older := history[:cut]
	kept := history[cut:]

	transcript := renderTranscript(older)

	summary, err := s.summarize(runCtx, transcript)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	if runCtx.MemoryStore != nil {
		// Archival is best-effort; compaction proceeds even if it fails.
		if storeErr := runCtx.MemoryStore.Store(runCtx.SessionID, transcript, map[string]any{
			"kind":      "compacted_history",
			"run_id":    runCtx.RunID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); storeErr != nil {
			runCtx.LogWarn("middleware.summarize.archive_failed", "error", storeErr.Error())
		}
	}

	runCtx.LogInfo(
		"middleware.summarize.compacted",
		"estimated_tokens", estimated,
		"displaced_messages", len(older),
		"kept_messages", len(kept),
	)

	compacted := make([]core.Content, 0, len(kept)+2)
	compacted = append(compacted, system)
	compacted = append(compacted, core.Content{
		Role:  "user",
		Parts: []core.Part{core.TextPart{Text: "Summary of the earlier conversation:\n\n" + summary}},
	})
	compacted = append(compacted, kept...)
	req.Contents = compacted

	return nil
}

// summarize runs a single non-streaming model call over the transcript.
func (s *Summarization) summarize(runCtx *core.RunContext, transcript string) (string, error) {
	respCh, errCh := s.llm.Generate(runCtx.Context, model.Request{
		Instructions: summaryPrompt,
		Contents: []core.Content{
			{Role: "system", Parts: []core.Part{core.TextPart{Text: summaryPrompt}}},
			{Role: "user", Parts: []core.Part{core.TextPart{Text: transcript}}},
		},
	})

	var sb strings.Builder
	for {
		select {
		case <-runCtx.Context.Done():
			return "", runCtx.Context.Err()
		case err, ok := <-errCh:
			if ok && err != nil {
				return "", err
			}
			errCh = nil
		case resp, ok := <-respCh:
			if !ok {
				return sb.String(), nil
			}
			if resp.Partial {
				continue
			}
			for _, p := range resp.Content.Parts {
				if tp, ok := p.(core.TextPart); ok {
					sb.WriteString(tp.Text)
				}
			}
		}
	}
}

// skipRequested reports whether the latest persisted event asked to bypass
// summarization for this turn.
func skipRequested(runCtx *core.RunContext) bool {
	if runCtx.Session == nil {
		return false
	}
	events := runCtx.Session.GetEvents()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Actions.SkipSummarization != nil {
			return *events[i].Actions.SkipSummarization
		}
	}
	return false
}

// estimateTokens approximates the token count of the request contents.
func estimateTokens(contents []core.Content) int {
	chars := 0
	for _, c := range contents {
		chars += contentChars(c)
	}
	return chars / charsPerToken
}

func contentChars(c core.Content) int {
	n := 0
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			n += len(part.Text)
		case core.FunctionCallPart:
			n += len(part.FunctionCall.Name) + len(part.FunctionCall.Arguments)
		case core.FunctionResponsePart:
			n += len(fmt.Sprintf("%v", part.FunctionResponse.Response))
		}
	}
	return n
}

// renderTranscript flattens contents into a plain-text transcript for the
// summary model and the memory archive.
func renderTranscript(contents []core.Content) string {
	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			switch part := p.(type) {
			case core.TextPart:
				fmt.Fprintf(&sb, "[%s] %s\n", c.Role, part.Text)
			case core.FunctionCallPart:
				fmt.Fprintf(&sb, "[%s] call %s(%s)\n", c.Role, part.FunctionCall.Name, part.FunctionCall.Arguments)
			case core.FunctionResponsePart:
				fmt.Fprintf(&sb, "[tool] %s -> %v\n", part.FunctionResponse.Name, part.FunctionResponse.Response)
			}
		}
	}
	return sb.String()
}
