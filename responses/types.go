// Package responses implements the Responses-style serving protocol: request
// and response wire types, the event-to-output-item streaming adapter, and an
// HTTP handler exposing an agent over POST /invocations.
package responses

// Output item types.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
)

// OutputTextType tags text segments inside a message output item.
const OutputTextType = "output_text"

// StreamEventOutputItemDone is the type of every streamed event: one
// completed output item per event.
const StreamEventOutputItemDone = "response.output_item.done"

// InputItem is one conversational input message.
type InputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the inbound invocation payload.
type Request struct {
	Input        []InputItem    `json:"input"`
	CustomInputs map[string]any `json:"custom_inputs,omitempty"`
	// Stream switches the handler to server-sent events.
	Stream bool `json:"stream,omitempty"`
}

// OutputText is a text segment inside a message output item.
type OutputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutputItem is one unit of response content. Type selects which fields are
// populated: message items carry Role and Content, function-call items carry
// CallID/Name/Arguments, function-call-output items carry CallID/Output.
type OutputItem struct {
	Type      string       `json:"type"`
	ID        string       `json:"id,omitempty"`
	Role      string       `json:"role,omitempty"`
	Content   []OutputText `json:"content,omitempty"`
	CallID    string       `json:"call_id,omitempty"`
	Name      string       `json:"name,omitempty"`
	Arguments string       `json:"arguments,omitempty"`
	Output    string       `json:"output,omitempty"`
}

// Text returns the concatenated text of a message item.
func (o OutputItem) Text() string {
	var s string
	for _, c := range o.Content {
		s += c.Text
	}
	return s
}

// NewTextItem builds an assistant message item with a single text segment.
func NewTextItem(id, text string) OutputItem {
	return OutputItem{
		Type:    ItemTypeMessage,
		ID:      id,
		Role:    "assistant",
		Content: []OutputText{{Type: OutputTextType, Text: text}},
	}
}

// NewFunctionCallItem builds a function-call item.
func NewFunctionCallItem(id, callID, name, arguments string) OutputItem {
	return OutputItem{
		Type:      ItemTypeFunctionCall,
		ID:        id,
		CallID:    callID,
		Name:      name,
		Arguments: arguments,
	}
}

// NewFunctionCallOutputItem builds a function-call-output item.
func NewFunctionCallOutputItem(callID, output string) OutputItem {
	return OutputItem{
		Type:   ItemTypeFunctionCallOutput,
		CallID: callID,
		Output: output,
	}
}

// Response is the non-streaming invocation result.
type Response struct {
	Output        []OutputItem   `json:"output"`
	CustomOutputs map[string]any `json:"custom_outputs,omitempty"`
}

// StreamEvent wraps one completed output item for streamed delivery.
type StreamEvent struct {
	Type string     `json:"type"`
	Item OutputItem `json:"item"`
}
