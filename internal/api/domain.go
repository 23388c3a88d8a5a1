package api

import (
	"github.com/JaimeStill/ml-agent/internal/agent"
	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/providers"
	"github.com/JaimeStill/ml-agent/internal/runs"
	"github.com/JaimeStill/ml-agent/internal/tasks"
)

// Domain holds all domain systems that comprise the API. Runs is nil when
// run history persistence is disabled.
type Domain struct {
	Models       models.System
	Orchestrator *tasks.Orchestrator
	Agent        *agent.Agent
	Runs         runs.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	client := providers.New(&cfg.Provider, runtime.Logger)

	modelSys := models.NewManager(
		cfg.Models,
		&cfg.Resources,
		client,
		runtime.Logger,
		runtime.Metrics,
	)

	var runsSys runs.System
	if runtime.Database != nil {
		runsSys = runs.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		)
	}

	taskRuntime := &tasks.Runtime{
		Models:  modelSys,
		Storage: runtime.Storage,
		Logger:  runtime.Logger,
	}

	var recorder tasks.Recorder
	if runsSys != nil {
		recorder = runsSys
	}

	orchestrator := tasks.NewOrchestrator(
		cfg.Tasks,
		taskRuntime,
		cfg.Resources.MaxConcurrentTasks,
		runtime.Logger,
		runtime.Metrics,
		recorder,
	)

	agentSys := agent.New(cfg, modelSys, orchestrator, runtime.Logger)

	return &Domain{
		Models:       modelSys,
		Orchestrator: orchestrator,
		Agent:        agentSys,
		Runs:         runsSys,
	}
}
