package supervisor

import (
	"regexp"
	"strings"

	"github.com/stewardai/steward/agent"
	"github.com/stewardai/steward/core"
)

// FormatterName identifies the post-processing step. The streaming adapter
// uses it to suppress node announcements for formatter events.
const FormatterName = "format_response"

// fileReferencePatterns match sentences describing virtual-file operations.
// These are implementation details the user never asked about.
var fileReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)I(?:'ve| have) saved.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)I(?:'ll| will) save.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Let me save.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)I(?:'ve| have) written.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Saved to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Writing to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)I(?:'ll| will) write.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Saving.*?to [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Reading from [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)I(?:'ve| have) read.*?from [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)Let me read.*?from [\w\-./]+\.\w+`),
	regexp.MustCompile(`(?i)The file [\w\-./]+\.\w+ contains`),
	regexp.MustCompile(`(?i)From [\w\-./]+\.\w+:`),
	regexp.MustCompile(`(?i)I(?:'ve| have) saved.*?to /large_tool_results/[\w\-./]+`),
	regexp.MustCompile(`(?i)The (?:full )?results? (?:were|was|has been) (?:automatically )?saved to /large_tool_results/[\w\-./]+`),
}

var blankLineRuns = regexp.MustCompile(`\n\s*\n\s*\n`)

// RemoveFileReferences strips virtual-file-operation commentary from a
// response and collapses the blank-line runs left behind. It is idempotent
// and returns pattern-free input unchanged apart from whitespace trimming.
func RemoveFileReferences(content string) string {
	if content == "" {
		return content
	}
	cleaned := content
	for _, p := range fileReferencePatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = blankLineRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// Formatter is the post-processing agent appended after the supervisor. It
// rewrites the last assistant message with the cleaned text. When there is
// no assistant message, or cleaning changes nothing, it emits nothing.
type Formatter struct {
	agent.BaseAgent
}

// NewFormatter constructs the formatter step.
func NewFormatter() *Formatter {
	return &Formatter{BaseAgent: agent.NewBaseAgent(FormatterName)}
}

// Run implements core.Agent.
func (f *Formatter) Run(runCtx *core.RunContext) error {
	if err := runCtx.RefreshSession(); err != nil {
		return err
	}

	last := lastAssistantEvent(runCtx.Session.GetEvents())
	if last == nil {
		return nil
	}
	text := eventText(*last)
	if text == "" {
		return nil
	}

	cleaned := RemoveFileReferences(text)
	if cleaned == text {
		return nil
	}

	// Reuse the source event ID: the rewritten message replaces the
	// original, and the adapter's seen-ID set keeps it from being surfaced
	// a second time.
	ev := core.NewEvent(runCtx.RunID, FormatterName)
	ev.ID = last.ID
	ev.Content = &core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: cleaned}}}
	if err := runCtx.EmitEvent(ev); err != nil {
		return err
	}
	return runCtx.WaitForResume()
}

func lastAssistantEvent(events []core.Event) *core.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Content != nil && events[i].Content.Role == "assistant" {
			return &events[i]
		}
	}
	return nil
}

func eventText(ev core.Event) string {
	var sb strings.Builder
	for _, p := range ev.Content.Parts {
		if tp, ok := p.(core.TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}
