package flow

import (
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/model"
)

func TestInstructionsProcessor_Name(t *testing.T) {
	if NewInstructionsProcessor().Name() != "instructions" {
		t.Errorf("expected name 'instructions'")
	}
}

func TestContentsProcessor_HistoryTruncation(t *testing.T) {
	rc := newTestRunContext(t)
	sess := core.NewSession("trunc")
	for i := 0; i < 5; i++ {
		sess.AddEvent(core.NewUserMessageEvent("run", "message"))
	}
	rc.Session = sess

	agent := &mockFlowAgent{name: "a"}
	// mockFlowAgent keeps up to 10 messages, so all 5 survive plus system
	req := &model.Request{Instructions: "sys"}
	if err := NewContentsProcessor().ProcessRequest(rc, req, agent); err != nil {
		t.Fatal(err)
	}
	if len(req.Contents) != 6 {
		t.Fatalf("expected 6 contents, got %d", len(req.Contents))
	}
	if req.Contents[0].Role != "system" {
		t.Fatalf("first content must be system, got %s", req.Contents[0].Role)
	}
}

func TestInstructionsProcessor_TemplateRendering(t *testing.T) {
	rc := newTestRunContext(t)
	rc.Session.SetState("region", "EMEA")

	agent := &templatedAgent{}
	req := new(model.Request)
	if err := NewInstructionsProcessor().ProcessRequest(rc, req, agent); err != nil {
		t.Fatal(err)
	}
	if req.Instructions != "Focus on EMEA." {
		t.Errorf("instructions = %q", req.Instructions)
	}
}

type templatedAgent struct{ mockFlowAgent }

func (a *templatedAgent) ResolveInstructions(*core.RunContext) (string, error) {
	return "Focus on {{.region}}.", nil
}
