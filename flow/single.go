package flow

// SingleAgentFlow implements the execution flow for a standalone agent.
// It wires default processors for instruction resolution and content
// assembly, registers any processors contributed by the agent's
// middlewares, then relays model streaming events directly.
type SingleAgentFlow struct{ *BaseFlow }

// NewSingleAgentFlow creates a new single-agent flow.
func NewSingleAgentFlow(agent FlowAgent) *SingleAgentFlow {
	baseFlow := NewBaseFlow(agent)

	baseFlow.AddRequestProcessor(NewInstructionsProcessor())
	baseFlow.AddRequestProcessor(NewContentsProcessor())

	// Middleware processors run after the defaults so they observe the
	// fully assembled request.
	for _, mw := range agent.Middlewares() {
		if rp := mw.RequestProcessor(); rp != nil {
			baseFlow.AddRequestProcessor(rp)
		}
		if sp := mw.ResponseProcessor(); sp != nil {
			baseFlow.AddResponseProcessor(sp)
		}
	}

	return &SingleAgentFlow{BaseFlow: baseFlow}
}
