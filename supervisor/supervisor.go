package supervisor

import (
	"fmt"
	"time"

	"github.com/stewardai/steward/agent"
	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/flow"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/middleware"
	"github.com/stewardai/steward/model"
	"github.com/stewardai/steward/runner"
	"github.com/stewardai/steward/tool"
)

// SupervisorName is the name of the model-backed supervisor agent.
const SupervisorName = "supervisor"

// Options configures New.
type Options struct {
	ServedAgents   []ServedAgent
	QuerySpaces    []QuerySpace
	FunctionAgents []FunctionAgent
	// Registry resolves FunctionAgent function names. Required when
	// FunctionAgents is non-empty.
	Registry FunctionRegistry

	// EnableStreaming fixes the model streaming mode at construction time.
	EnableStreaming bool
	// EvictionThreshold overrides the filesystem middleware default.
	EvictionThreshold int
	// TokenBudget and KeepMessages override the summarization defaults.
	TokenBudget  int
	KeepMessages int
	// MaxModelCalls caps model calls per invocation.
	MaxModelCalls int
	// MaxHistoryMessages caps how much session history enters each request.
	MaxHistoryMessages int

	// Now supplies the clock for prompt rendering.
	Now func() time.Time

	SessionStore core.SessionStore
	FileStore    core.FileStore
	MemoryStore  core.MemoryStore
	Logger       logging.Logger

	// AssemblerOptions substitute the sub-agent clients in tests.
	AssemblerOptions []func(o *AssemblerOptions)
}

// Supervisor is the fully wired agent system: the model-backed supervisor
// with its middleware stack, the formatter step behind it, and the runner
// that executes invocations. Construct it once at process start and inject
// it into the serving layer; there is no lazy global instance.
type Supervisor struct {
	agent  core.Agent
	runner *runner.Runner
}

// New builds the supervisor from declarative sub-agent descriptors.
//
// Middleware order matters: planning and filesystem contribute tools and
// prompt guidance, summarization compacts oversized history, and the
// tool-call repair processor runs last so it can fix any dangling pairs the
// compaction left behind.
func New(llm model.Model, optFns ...func(o *Options)) (*Supervisor, error) {
	opts := Options{
		MaxModelCalls:      100,
		MaxHistoryMessages: 50,
		Now:                time.Now,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools, err := BuildTools(opts.ServedAgents, opts.QuerySpaces, opts.FunctionAgents, opts.Registry, opts.AssemblerOptions...)
	if err != nil {
		return nil, fmt.Errorf("assemble tools: %w", err)
	}
	toolMap := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		toolMap[t.Name()] = t
	}

	middlewares := []flow.Middleware{
		middleware.NewPlanning(),
		middleware.NewFilesystem(func(o *middleware.FilesystemOptions) {
			o.EvictionThreshold = opts.EvictionThreshold
		}),
		middleware.NewSummarization(llm, func(o *middleware.SummarizationOptions) {
			if opts.TokenBudget > 0 {
				o.TokenBudget = opts.TokenBudget
			}
			if opts.KeepMessages > 0 {
				o.KeepMessages = opts.KeepMessages
			}
		}),
		middleware.NewPatchCalls(),
	}

	prompt := BuildSystemPrompt(opts.Now())

	supervisorAgent := agent.NewModelAgent(SupervisorName, llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(prompt)
		o.EnableStreaming = opts.EnableStreaming
		o.Tools = toolMap
		o.Middlewares = middlewares
		o.MaxHistoryMessages = opts.MaxHistoryMessages
	})

	formatter := NewFormatter()
	root := agent.NewSequentialAgent("steward", supervisorAgent, formatter)

	run := runner.New(root, func(o *runner.Options) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.EnableStreaming = opts.EnableStreaming
		o.Logger = opts.Logger
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		if opts.FileStore != nil {
			o.FileStore = opts.FileStore
		}
		if opts.MemoryStore != nil {
			o.MemoryStore = opts.MemoryStore
		}
	})

	return &Supervisor{agent: root, runner: run}, nil
}

// Agent returns the root agent (supervisor followed by formatter).
func (s *Supervisor) Agent() core.Agent { return s.agent }

// Runner returns the runner executing invocations against the agent.
func (s *Supervisor) Runner() *runner.Runner { return s.runner }
