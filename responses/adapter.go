package responses

import (
	"fmt"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/middleware"
)

// Adapter translates the internal event stream of one run into protocol
// output items. It keeps a seen-ID set so no source message is surfaced
// twice, announces the originating node between events, and retains the
// latest state snapshot so the final virtual-file map can be extracted after
// the stream ends.
//
// An Adapter is scoped to a single invocation and is not safe for concurrent
// use.
type Adapter struct {
	formatterName string
	seen          map[string]bool
	started       bool
	files         map[string]string
	lastEvent     *core.Event
}

// NewAdapter constructs an adapter. Events authored by formatterName are
// never announced with a node-name item.
func NewAdapter(formatterName string) *Adapter {
	return &Adapter{
		formatterName: formatterName,
		seen:          make(map[string]bool),
		files:         make(map[string]string),
	}
}

// Translate converts one internal event into zero or more stream events.
// Partial (streaming chunk) events are ignored; only completed messages are
// surfaced.
func (a *Adapter) Translate(ev core.Event) []StreamEvent {
	if ev.Partial != nil && *ev.Partial {
		return nil
	}

	a.lastEvent = &ev
	a.absorbStateDelta(ev)

	var out []StreamEvent

	if a.started && ev.Author != "user" && ev.Author != a.formatterName {
		out = append(out, StreamEvent{
			Type: StreamEventOutputItemDone,
			Item: NewTextItem(core.NewID(), fmt.Sprintf("<name>%s</name>", ev.Author)),
		})
	}
	a.started = true

	if !a.seen[ev.ID] {
		a.seen[ev.ID] = true
		for _, item := range itemsFromEvent(ev) {
			out = append(out, StreamEvent{Type: StreamEventOutputItemDone, Item: item})
		}
	}

	return out
}

// Files returns the most recent virtual-file mapping observed in event state
// deltas. Empty when the run wrote no files.
func (a *Adapter) Files() map[string]string { return a.files }

// LastEvent returns the final event seen, or nil before any event arrived.
func (a *Adapter) LastEvent() *core.Event { return a.lastEvent }

// absorbStateDelta picks the virtual-file mirror out of an event's state
// delta. The value is map[string]string in-process but may arrive as
// map[string]any after a JSON round trip.
func (a *Adapter) absorbStateDelta(ev core.Event) {
	raw, ok := ev.Actions.StateDelta[middleware.FilesStateKey]
	if !ok {
		return
	}
	switch files := raw.(type) {
	case map[string]string:
		a.files = files
	case map[string]any:
		m := make(map[string]string, len(files))
		for k, v := range files {
			if s, ok := v.(string); ok {
				m[k] = s
			}
		}
		a.files = m
	}
}

// itemsFromEvent maps one event's content onto output items: assistant text
// becomes a message item, assistant tool calls become function-call items,
// and tool results become function-call-output items.
func itemsFromEvent(ev core.Event) []OutputItem {
	if ev.Content == nil {
		return nil
	}

	var items []OutputItem
	var text string
	for _, p := range ev.Content.Parts {
		switch part := p.(type) {
		case core.TextPart:
			text += part.Text
		case core.FunctionCallPart:
			callID := part.FunctionCall.ID
			if callID == "" {
				callID = ev.ID
			}
			items = append(items, NewFunctionCallItem(ev.ID, callID, part.FunctionCall.Name, part.FunctionCall.Arguments))
		case core.FunctionResponsePart:
			items = append(items, NewFunctionCallOutputItem(
				part.FunctionResponse.ID,
				stringifyResponse(part.FunctionResponse),
			))
		}
	}

	if ev.Content.Role == "assistant" && text != "" {
		// Text leads, matching the order the model produced it.
		items = append([]OutputItem{NewTextItem(ev.ID, text)}, items...)
	}

	return items
}

func stringifyResponse(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fr.Error
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}
