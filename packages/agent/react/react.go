// Package react implements the Reasoning(k) -> Acting(k) state machine that
// drives one agent reply: spec.md §4.5. It composes a Formatter, a model
// Adapter, a tool Registry+Dispatcher, and a Memory, none of which it owns.
package react

import (
	"context"
	"strings"
	"time"

	"github.com/arborly/reagent/packages/agent/accumulator"
	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/model"
	"github.com/arborly/reagent/packages/agent/toolchain"
	"github.com/arborly/reagent/packages/agent/types"
	"github.com/arborly/reagent/packages/stream"
)

// defaultMaxIters is the hard iteration cap spec.md §4.5 names as the
// default when a caller doesn't override it.
const defaultMaxIters = 10

// Config bundles the per-call knobs a Reply/Stream invocation needs.
type Config struct {
	SystemPrompt string
	MaxIters     int
	Parallel     bool
	ToolTimeout  time.Duration
	GenerateOpts model.GenerateOptions
}

func (c Config) maxIters() int {
	if c.MaxIters > 0 {
		return c.MaxIters
	}
	return defaultMaxIters
}

// Executor runs the ReAct loop against one Memory.
type Executor struct {
	formatter  format.Formatter
	adapter    model.Adapter
	registry   *toolchain.Registry
	dispatcher *toolchain.Dispatcher
	memory     *types.Memory
}

// New returns an Executor composed from its collaborators.
func New(formatter format.Formatter, adapter model.Adapter, registry *toolchain.Registry, memory *types.Memory) *Executor {
	return &Executor{
		formatter:  formatter,
		adapter:    adapter,
		registry:   registry,
		dispatcher: toolchain.NewDispatcher(registry),
		memory:     memory,
	}
}

// Run drives the loop to completion, appending every reasoning/acting Msg to
// memory and pushing every emitted Msg onto es as it becomes available. The
// terminal result is the final assistant Msg reply aggregation (spec.md
// §4.5's "Final reply aggregation").
func (e *Executor) Run(ctx context.Context, cfg Config, es *stream.EventStream[types.Msg, types.Msg]) {
	maxIters := cfg.maxIters()

	var collected []types.Msg
	for iter := 0; iter < maxIters; iter++ {
		if ctx.Err() != nil {
			es.EndWithError(ctx.Err())
			return
		}

		reasoningMsg, emitted, err := e.reason(ctx, cfg, es)
		if err != nil {
			es.EndWithError(err)
			return
		}
		collected = append(collected, emitted...)
		e.memory.Append(reasoningMsg)

		if !e.isToolCallable(reasoningMsg) {
			break
		}

		actMsgs := e.act(ctx, cfg, reasoningMsg)
		for _, m := range actMsgs {
			e.memory.Append(m)
			es.Push(m)
		}
		collected = append(collected, actMsgs...)
	}

	es.End(aggregateReply(collected))
}

// isToolCallable reports whether msg's content is a ToolUse naming a
// registered tool — the ReAct "answer" convention: an unregistered name
// means the model finished by calling a pseudo "finish" function.
func (e *Executor) isToolCallable(msg types.Msg) bool {
	tu, ok := msg.IsToolUse()
	if !ok {
		return false
	}
	_, registered := e.registry.Get(tu.Name)
	return registered
}

// reason runs one Reasoning(k) phase: format memory, open the model stream,
// feed ToolUse fragments to a fresh accumulator, and emit Text/Thinking
// blocks downstream as they arrive. It returns the single synthetic Msg this
// phase appends to memory (a ToolUse Msg, or an aggregated Text Msg) plus
// every Msg it pushed to es for the caller's own bookkeeping.
func (e *Executor) reason(ctx context.Context, cfg Config, es *stream.EventStream[types.Msg, types.Msg]) (types.Msg, []types.Msg, error) {
	wire := e.formatter.Format(cfg.SystemPrompt, e.memory.Snapshot())
	chatStream := e.adapter.Stream(ctx, wire, e.registry.Schemas(), cfg.GenerateOpts)

	acc := accumulator.New()
	var textBuilder strings.Builder
	var emitted []types.Msg

	for chunk := range chatStream.Events() {
		for _, block := range chunk.Content {
			switch b := block.(type) {
			case types.ToolUseContent:
				acc.Feed(b)
			case types.TextContent:
				textBuilder.WriteString(b.Text)
				msg := types.NewMsg(types.RoleAssistant, "", b)
				es.Push(msg)
				emitted = append(emitted, msg)
			case types.ThinkingContent:
				msg := types.NewMsg(types.RoleAssistant, "", b)
				es.Push(msg)
				emitted = append(emitted, msg)
			}
		}
	}

	if _, err := chatStream.Result(); err != nil {
		return types.Msg{}, emitted, err
	}

	if toolUse, ok := acc.Finish(); ok {
		msg := types.NewMsg(types.RoleAssistant, "", toolUse)
		es.Push(msg)
		return msg, append(emitted, msg), nil
	}

	msg := types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: textBuilder.String()})
	return msg, emitted, nil
}

// act runs one Acting(k) phase: dispatch the last reasoning message's
// single ToolUse and return the role=tool Msg to append to memory. A
// reasoning phase assembles at most one tool call, so several tool calls
// emitted by the model in one turn are not dispatched as a batch.
func (e *Executor) act(ctx context.Context, cfg Config, reasoningMsg types.Msg) []types.Msg {
	toolUse, ok := reasoningMsg.IsToolUse()
	if !ok {
		return nil
	}

	calls := []types.ToolUseContent{toolUse}
	responses := e.dispatcher.Dispatch(ctx, calls, cfg.Parallel, cfg.ToolTimeout)

	msgs := make([]types.Msg, len(responses))
	for i, resp := range responses {
		msgs[i] = resp.ToMsg(calls[i].Name)
	}
	return msgs
}

// aggregateReply implements spec.md §4.5's final reply aggregation: starting
// from the last ToolUse in the collected stream (or the start if none),
// concatenate every Text block's text; Thinking blocks are omitted.
func aggregateReply(collected []types.Msg) types.Msg {
	start := 0
	for i := len(collected) - 1; i >= 0; i-- {
		if _, ok := collected[i].IsToolUse(); ok {
			start = i + 1
			break
		}
	}

	var sb strings.Builder
	for _, msg := range collected[start:] {
		if tc, ok := msg.Content().(types.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: sb.String()})
}
