package toolchain

import (
	"context"
	"fmt"
	"time"

	"github.com/arborly/reagent/packages/agent/types"
)

// Dispatcher invokes a batch of ToolUse calls against a Registry. Parallel
// batches run every call concurrently, bounded only by the batch size
// itself (a cached, short-lived-per-task worker pool per spec.md §4.4, which
// one goroutine per call already gives us — no separate pool object is
// needed at this batch size).
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a Dispatcher invoking tools through registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch runs calls and returns one ToolResponse per call, in the same
// order as calls regardless of parallel or per-call latency (spec.md §8
// property 3). If timeout is positive and expires before every call
// finishes, every still-pending response becomes error("Tool execution
// timed out") per spec.md §5 — distinct from a caller-driven ctx
// cancellation, which instead produces Interrupted responses.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []types.ToolUseContent, parallel bool, timeout time.Duration) []ToolResponse {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if parallel {
		return d.dispatchParallel(ctx, calls)
	}
	return d.dispatchSequential(ctx, calls)
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, calls []types.ToolUseContent) []ToolResponse {
	responses := make([]ToolResponse, len(calls))
	for i, call := range calls {
		responses[i] = d.invoke(ctx, call)
	}
	return responses
}

type indexedResponse struct {
	index int
	resp  ToolResponse
}

// dispatchParallel runs every call on its own goroutine and collects results
// over a channel rather than blocking on a WaitGroup, so a call that ignores
// ctx cannot hold the whole batch open past a timeout or cancellation —
// spec.md §5's "on expiry ... the batch completes". The channel is buffered
// to the call count so an abandoned goroutine's eventual send never blocks.
func (d *Dispatcher) dispatchParallel(ctx context.Context, calls []types.ToolUseContent) []ToolResponse {
	results := make(chan indexedResponse, len(calls))
	for i := range calls {
		go func(i int) {
			results <- indexedResponse{index: i, resp: d.invoke(ctx, calls[i])}
		}(i)
	}

	responses := make([]ToolResponse, len(calls))
	filled := make([]bool, len(calls))
	remaining := len(calls)
	for remaining > 0 {
		select {
		case r := <-results:
			responses[r.index] = r.resp
			filled[r.index] = true
			remaining--
		case <-ctx.Done():
			for i, ok := range filled {
				if !ok {
					responses[i] = responseFor(calls[i].ID, ctx.Err())
				}
			}
			return responses
		}
	}
	return responses
}

// invoke runs one call, translating a missing tool, a returned error, a
// panic, a timeout, or a cancelled ctx into the matching ToolResponse shape.
// Errors are data: invoke never panics out to its caller.
func (d *Dispatcher) invoke(ctx context.Context, call types.ToolUseContent) (resp ToolResponse) {
	if err := ctx.Err(); err != nil {
		return responseFor(call.ID, err)
	}

	fn, ok := d.registry.Get(call.Name)
	if !ok {
		return Error(call.ID, fmt.Sprintf("Tool not found: %s", call.Name))
	}

	if err := d.registry.Validate(call.Name, call.Input); err != nil {
		return Error(call.ID, fmt.Sprintf("invalid arguments for %s: %v", call.Name, err))
	}

	defer func() {
		if r := recover(); r != nil {
			resp = Error(call.ID, fmt.Sprintf("Tool execution failed: %v", r))
		}
	}()

	result, err := fn(ctx, call.Input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return responseFor(call.ID, ctxErr)
		}
		return Error(call.ID, fmt.Sprintf("Tool execution failed: %v", err))
	}
	if result.ID == "" {
		result.ID = call.ID
	}
	return result
}

// responseFor maps a context error to the taxonomy spec.md §5 requires:
// an expired per-batch timeout is an error response, a caller-driven
// cancellation is an interrupted one.
func responseFor(id string, err error) ToolResponse {
	if err == context.DeadlineExceeded {
		return Error(id, "Tool execution timed out")
	}
	return Interrupted(id)
}
