package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	prompt := BuildSystemPrompt(now)

	assert.Contains(t, prompt, "CURRENT DATE: March 05, 2026")
	assert.Contains(t, prompt, "fiscal year starts February 1st")
	assert.Contains(t, prompt, "write_todos")
	assert.Contains(t, prompt, "read_todos")
	assert.Contains(t, prompt, "DOLLARS as the primary metric")
	// No template markers; the prompt is rendered as-is.
	assert.NotContains(t, prompt, "{{")
}
