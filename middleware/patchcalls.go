package middleware

import (
	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/flow"
	"github.com/stewardai/steward/model"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// interruptedResult is substituted for tool calls that never produced a
// response (crash, cancellation, truncated stream).
const interruptedResult = "Tool call was interrupted before a result was recorded. Re-issue the call if the result is still needed."

// PatchCalls repairs tool-call inconsistencies in the assembled request
// before each model turn: malformed JSON arguments are rewrapped, calls
// without responses get a synthetic response, and responses without calls are
// dropped. Providers reject histories that violate call/response pairing.
type PatchCalls struct {
	flow.PassthroughMiddleware
}

// NewPatchCalls constructs the tool-call repair middleware.
func NewPatchCalls() *PatchCalls { return &PatchCalls{} }

// Name returns the middleware identifier.
func (p *PatchCalls) Name() string { return "patchcalls" }

// RequestProcessor returns the repair processor.
func (p *PatchCalls) RequestProcessor() flow.RequestProcessor { return p }

// ProcessRequest rewrites req.Contents in place.
func (p *PatchCalls) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent flow.FlowAgent) error {
	// First pass: collect call IDs and response IDs, fixing malformed
	// arguments as we go.
	callIDs := map[string]bool{}
	responseIDs := map[string]bool{}
	repairedArgs := 0

	for ci := range req.Contents {
		c := &req.Contents[ci]
		for pi, part := range c.Parts {
			switch pt := part.(type) {
			case core.FunctionCallPart:
				if pt.FunctionCall.ID != "" {
					callIDs[pt.FunctionCall.ID] = true
				}
				if fixed, changed := repairArguments(pt.FunctionCall.Arguments); changed {
					pt.FunctionCall.Arguments = fixed
					c.Parts[pi] = pt
					repairedArgs++
				}
			case core.FunctionResponsePart:
				if pt.FunctionResponse.ID != "" {
					responseIDs[pt.FunctionResponse.ID] = true
				}
			}
		}
	}

	// Second pass: rebuild contents, inserting synthetic responses directly
	// after assistant messages with unanswered calls and dropping orphan
	// responses.
	patched := make([]core.Content, 0, len(req.Contents))
	danglingFixed := 0
	orphansDropped := 0

	for _, c := range req.Contents {
		if c.Role == "tool" {
			kept := make([]core.Part, 0, len(c.Parts))
			for _, part := range c.Parts {
				if fr, ok := part.(core.FunctionResponsePart); ok {
					if fr.FunctionResponse.ID != "" && !callIDs[fr.FunctionResponse.ID] {
						orphansDropped++
						continue
					}
				}
				kept = append(kept, part)
			}
			if len(kept) == 0 {
				continue
			}
			c.Parts = kept
			patched = append(patched, c)
			continue
		}

		patched = append(patched, c)

		if c.Role != "assistant" {
			continue
		}
		var synthetic []core.Part
		for _, part := range c.Parts {
			fc, ok := part.(core.FunctionCallPart)
			if !ok || fc.FunctionCall.ID == "" || responseIDs[fc.FunctionCall.ID] {
				continue
			}
			synthetic = append(synthetic, core.FunctionResponsePart{
				FunctionResponse: core.FunctionResponse{
					ID:       fc.FunctionCall.ID,
					Name:     fc.FunctionCall.Name,
					Response: interruptedResult,
				},
			})
			danglingFixed++
		}
		if len(synthetic) > 0 {
			patched = append(patched, core.Content{Role: "tool", Parts: synthetic})
		}
	}

	if repairedArgs > 0 || danglingFixed > 0 || orphansDropped > 0 {
		runCtx.LogInfo(
			"middleware.patchcalls.repaired",
			"malformed_arguments", repairedArgs,
			"dangling_calls", danglingFixed,
			"orphan_responses", orphansDropped,
		)
		req.Contents = patched
	}

	return nil
}

// repairArguments makes sure tool-call arguments are a JSON object. Malformed
// payloads are preserved verbatim under a "_raw" key so the model can still
// see what it produced.
func repairArguments(args string) (string, bool) {
	if args == "" {
		return "{}", true
	}
	if gjson.Valid(args) && gjson.Parse(args).IsObject() {
		return args, false
	}
	fixed, err := sjson.Set("{}", "_raw", args)
	if err != nil {
		return "{}", true
	}
	return fixed, true
}
