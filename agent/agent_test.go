package agent

import (
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAgent for testing composite agents
type MockAgent struct {
	mock.Mock
	name string
}

func NewMockAgent(name string) *MockAgent {
	return &MockAgent{name: name}
}

func (m *MockAgent) Name() string { return m.name }

func (m *MockAgent) Run(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) Start(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) Stop(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) SubAgents() []core.Agent {
	args := m.Called()
	return args.Get(0).([]core.Agent)
}

func (m *MockAgent) Description() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgent) SetSubAgents(children ...core.Agent) error {
	args := m.Called(children)
	return args.Error(0)
}

func (m *MockAgent) Parent() core.Agent {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(core.Agent)
}

func (m *MockAgent) FindAgent(name string) core.Agent {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(core.Agent)
}

// Common test utilities
func TestNewEventID(t *testing.T) {
	eventID := core.NewID()
	assert.NotEmpty(t, eventID)
	assert.Len(t, eventID, 36) // UUID length
}

func TestBaseAgentHierarchy(t *testing.T) {
	parent := NewBaseAgent("parent")
	childA := NewBaseAgent("child-a")
	childB := NewBaseAgent("child-b")

	err := parent.SetSubAgents(&agentWrapper{&childA}, &agentWrapper{&childB})
	assert.NoError(t, err)
	assert.Len(t, parent.SubAgents(), 2)

	found := parent.FindAgent("child-b")
	assert.NotNil(t, found)
	assert.Equal(t, "child-b", found.Name())

	assert.Nil(t, parent.FindAgent("missing"))
}
