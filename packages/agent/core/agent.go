// Package core exposes the public Agent facade: Reply/Stream/RegisterTool,
// composing a Formatter, a model Adapter, a tool Registry+Dispatcher, a
// Memory, a hook Manager, and the react.Executor state machine. The caller
// supplies the Formatter and Adapter through Config; New builds the rest. Grounded on
// Chethan30-biome/agent-core/packages/agent/core/agent.go's Agent type,
// reshaped around this module's single react.Executor orchestrator instead
// of a pluggable Orchestrator interface — spec.md names exactly one state
// machine (§4.5), so there is nothing left to plug.
package core

import (
	"context"
	"time"

	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/hooks"
	"github.com/arborly/reagent/packages/agent/model"
	"github.com/arborly/reagent/packages/agent/react"
	"github.com/arborly/reagent/packages/agent/toolchain"
	"github.com/arborly/reagent/packages/agent/types"
	"github.com/arborly/reagent/packages/stream"
)

// Config configures an Agent at construction. Formatter and Adapter are
// required; the rest mirror react.Config's defaults.
type Config struct {
	SystemPrompt string
	Formatter    format.Formatter
	Adapter      model.Adapter
	MaxIters     int
	Parallel     bool
	ToolTimeout  time.Duration
	GenerateOpts model.GenerateOptions
}

// Agent is the embeddable entry point: one instance per conversation.
// Memory, the tool registry, and the hook manager are owned exclusively by
// this instance — nothing here is shared across concurrent Agents.
type Agent struct {
	cfg      Config
	registry *toolchain.Registry
	memory   *types.Memory
	hooks    *hooks.Manager
	executor *react.Executor
}

// New constructs an Agent from cfg, with an empty memory, tool registry, and
// hook manager.
func New(cfg Config) *Agent {
	registry := toolchain.NewRegistry()
	memory := types.NewMemory()
	return &Agent{
		cfg:      cfg,
		registry: registry,
		memory:   memory,
		hooks:    hooks.New(),
		executor: react.New(cfg.Formatter, cfg.Adapter, registry, memory),
	}
}

// RegisterTool installs a callable under name, described to the model by
// parameters (a JSON-Schema object). Re-registering a name overwrites it.
func (a *Agent) RegisterTool(name, description string, parameters map[string]any, fn toolchain.Func) error {
	return a.registry.Register(name, description, parameters, fn)
}

// RegisterPreHook appends a pre-hook, run in registration order before every
// Reply/Stream call proceeds.
func (a *Agent) RegisterPreHook(hook hooks.PreHook) {
	a.hooks.RegisterPre(hook)
}

// RegisterPostHook appends a post-hook, run in registration order over every
// Msg this Agent emits (streamed, and the final Reply/Stream result).
func (a *Agent) RegisterPostHook(hook hooks.PostHook) {
	a.hooks.RegisterPost(hook)
}

// Memory exposes the conversation log for snapshot/restore by a caller
// managing session persistence across Agent instances.
func (a *Agent) Memory() *types.Memory {
	return a.memory
}

// Reset clears the conversation history. The tool registry and hooks survive
// a Reset — only the memory is per-conversation.
func (a *Agent) Reset() {
	a.memory.Clear()
}

// Stream runs one ReAct loop over input and returns a cold stream of every
// intermediate Msg (text, thinking, tool-use, tool-result) in emission
// order, terminating with the final aggregated assistant reply. Every
// pushed Msg and the terminal result pass through the registered post-hooks.
func (a *Agent) Stream(ctx context.Context, input ...types.Msg) *stream.EventStream[types.Msg, types.Msg] {
	args := a.hooks.RunPre(a, hooks.Args{"input": input})
	msgs := resolveInput(args, input)
	for _, m := range msgs {
		a.memory.Append(m)
	}

	es := stream.NewEventStream[types.Msg, types.Msg]()
	go func() {
		inner := stream.NewEventStream[types.Msg, types.Msg]()
		go a.executor.Run(ctx, a.reactConfig(), inner)

		for m := range inner.Events() {
			es.Push(a.hooks.RunPost(a, args, m))
		}

		final, err := inner.Result()
		if err != nil {
			es.EndWithError(err)
			return
		}
		es.End(a.hooks.RunPost(a, args, final))
	}()
	return es
}

// Reply runs Stream to completion and returns only the final assistant Msg.
func (a *Agent) Reply(ctx context.Context, input ...types.Msg) (types.Msg, error) {
	es := a.Stream(ctx, input...)
	for range es.Events() {
	}
	return es.Result()
}

func (a *Agent) reactConfig() react.Config {
	return react.Config{
		SystemPrompt: a.cfg.SystemPrompt,
		MaxIters:     a.cfg.MaxIters,
		Parallel:     a.cfg.Parallel,
		ToolTimeout:  a.cfg.ToolTimeout,
		GenerateOpts: a.cfg.GenerateOpts,
	}
}

// resolveInput lets a pre-hook substitute a rewritten input list by setting
// args["input"] to a []types.Msg; any other value (or an untouched args map)
// falls back to the original input.
func resolveInput(args hooks.Args, fallback []types.Msg) []types.Msg {
	if rewritten, ok := args["input"].([]types.Msg); ok {
		return rewritten
	}
	return fallback
}
