package commands

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/stewardai/steward/config"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/model"
	"github.com/stewardai/steward/model/anthropic"
	"github.com/stewardai/steward/model/openai"
	"github.com/stewardai/steward/subagent"
	"github.com/stewardai/steward/supervisor"
)

// Service locations for the sub-agent backends. The descriptors below are
// static; only the endpoints move between deployments.
const (
	queryServiceEnv    = "STEWARD_QUERY_URL"
	functionServiceEnv = "STEWARD_FUNCTIONS_URL"
	serviceTokenEnv    = "STEWARD_SERVICE_TOKEN"
)

// querySpaces declares the natural-language-to-SQL spaces the supervisor can
// delegate data questions to.
var querySpaces = []supervisor.QuerySpace{
	{
		SpaceID: "consumption",
		Name:    "consumption data",
		Description: "Answers questions from tables covering platform consumption at " +
			"customer accounts: accounts, dollars, usage units, SKUs, and use case " +
			"details such as target live dates, descriptions and status updates. " +
			"Specify the relevant columns and filters in the question.",
	},
}

// functionAgents declares the registered analytic functions exposed as tools.
var functionAgents = []supervisor.FunctionAgent{
	{
		Name:      "account lookup",
		Functions: []string{"get_accounts_by_account_executive"},
		Description: "Returns selected account details managed by a specific Account " +
			"Executive. Use this FIRST when working with AE names to identify which " +
			"accounts to analyze before querying consumption data.",
	},
	{
		Name:      "account summary",
		Functions: []string{"get_account_summaries"},
		Description: "Generates account-level summaries for all accounts managed by a " +
			"specific Account Executive: use case patterns, pipeline health, " +
			"opportunities and risks.",
	},
	{
		Name:      "follow-up messages",
		Functions: []string{"get_live_date_follow_up_messages"},
		Description: "Generates follow-up messages for use cases targeting go-live in " +
			"the current or next month. Pass an AE name, a comma separated list, or " +
			"ALL for everyone.",
	},
}

// buildModel constructs the foundation model from configuration. Streaming
// is fixed here, at construction time.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Name
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey()
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Name)
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey()
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

// buildSupervisor wires the full agent system from configuration and the
// static descriptors above.
func buildSupervisor(cfg config.Config, logger logging.Logger) (*supervisor.Supervisor, error) {
	llm, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	token := os.Getenv(serviceTokenEnv)

	spaces := querySpaces
	if queryURL := os.Getenv(queryServiceEnv); queryURL != "" {
		spaces = make([]supervisor.QuerySpace, len(querySpaces))
		copy(spaces, querySpaces)
		for i := range spaces {
			spaces[i].BaseURL = queryURL
		}
	} else {
		logger.Warn("steward.query.disabled", "reason", queryServiceEnv+" not set")
		spaces = nil
	}

	fnAgents := functionAgents
	var registry supervisor.FunctionRegistry
	if fnURL := os.Getenv(functionServiceEnv); fnURL != "" {
		registry = subagent.NewFunctionClient(fnURL, func(o *subagent.FunctionClientOptions) {
			o.Token = token
		})
	} else {
		logger.Warn("steward.functions.disabled", "reason", functionServiceEnv+" not set")
		fnAgents = nil
	}

	return supervisor.New(llm, func(o *supervisor.Options) {
		o.QuerySpaces = spaces
		o.FunctionAgents = fnAgents
		o.Registry = registry
		o.EnableStreaming = cfg.Model.Streaming
		o.EvictionThreshold = cfg.Limits.EvictionThreshold
		o.TokenBudget = cfg.Limits.TokenBudget
		o.KeepMessages = cfg.Limits.KeepMessages
		if cfg.Limits.MaxModelCalls > 0 {
			o.MaxModelCalls = cfg.Limits.MaxModelCalls
		}
		o.Logger = logger
		o.AssemblerOptions = []func(ao *supervisor.AssemblerOptions){
			func(ao *supervisor.AssemblerOptions) {
				ao.NewQueryAsker = func(s supervisor.QuerySpace) supervisor.QueryAsker {
					return subagent.NewQueryClient(s.BaseURL, s.SpaceID, func(qo *subagent.QueryClientOptions) {
						qo.Token = token
					})
				}
				ao.NewTaskInvoker = func(a supervisor.ServedAgent) supervisor.TaskInvoker {
					return subagent.NewServedClient(a.Endpoint, func(so *subagent.ServedClientOptions) {
						so.Token = token
					})
				}
			},
		}
	})
}
