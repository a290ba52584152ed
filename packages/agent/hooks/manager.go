// Package hooks implements the per-agent-instance pre/post hook pipeline
// that wraps the public Reply/Stream surface. Unlike rickchristie-gent's
// shared, class-level hooks.Registry, a Manager belongs to exactly one
// agent instance — spec.md §4.6 is an explicit redesign away from a
// shared-mutable hook bus across concurrent agents.
package hooks

import (
	"log/slog"
	"sync"

	"github.com/arborly/reagent/packages/agent/types"
)

// Args carries whatever correlation data a pre-hook wants to observe or
// rewrite before a reasoning/acting phase runs. Hosts populate and read it
// by convention on well-known keys; the manager itself never inspects it.
type Args map[string]any

// PreHook observes or rewrites Args before a call proceeds. It runs in
// registration order; a panicking pre-hook is logged and its output
// discarded, so later hooks and the core see the args unchanged.
type PreHook func(agent any, args Args) Args

// PostHook observes or replaces one emitted Msg. Returning ok=false passes
// the current output through unchanged (spec.md §4.6's "or null to pass
// through"). A panicking post-hook is logged and the current output passes
// through unchanged, exactly as if it had returned ok=false.
type PostHook func(agent any, args Args, output types.Msg) (replacement types.Msg, ok bool)

// Manager holds one agent's ordered pre/post hooks. Registration is
// lock-protected; the Manager has no operation to remove or clear hooks.
// Run{Pre,Post} take a stable snapshot of the hook slice at the start of
// each reply so a concurrent registration never races a dispatch in
// progress (spec.md §5).
type Manager struct {
	mu   sync.RWMutex
	pre  []PreHook
	post []PostHook
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{}
}

// RegisterPre appends a pre-hook, to run after every previously-registered
// pre-hook.
func (m *Manager) RegisterPre(hook PreHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pre = append(m.pre, hook)
}

// RegisterPost appends a post-hook, to run after every previously-registered
// post-hook.
func (m *Manager) RegisterPost(hook PostHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.post = append(m.post, hook)
}

func (m *Manager) preSnapshot() []PreHook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PreHook, len(m.pre))
	copy(out, m.pre)
	return out
}

func (m *Manager) postSnapshot() []PostHook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PostHook, len(m.post))
	copy(out, m.post)
	return out
}

// RunPre threads args through every registered pre-hook in order, over a
// snapshot taken once at the start of the call. A panicking hook is logged
// and skipped; the args it received pass through to the next hook untouched
// (spec.md §8 property 8: hook isolation).
func (m *Manager) RunPre(agent any, args Args) Args {
	for _, hook := range m.preSnapshot() {
		args = m.safePre(hook, agent, args)
	}
	return args
}

func (m *Manager) safePre(hook PreHook, agent any, args Args) (result Args) {
	result = args
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pre-hook panicked, args unchanged", "panic", r)
			result = args
		}
	}()
	// The hook works on a shallow copy so that in-place writes made before a
	// panic never reach the args handed on to later hooks.
	working := make(Args, len(args))
	for k, v := range args {
		working[k] = v
	}
	return hook(agent, working)
}

// RunPost threads output through every registered post-hook in order, over
// a snapshot taken once at the start of the call. A panicking hook is logged
// and its replacement discarded; the output it received passes through to
// the next hook untouched.
func (m *Manager) RunPost(agent any, args Args, output types.Msg) types.Msg {
	for _, hook := range m.postSnapshot() {
		output = m.safePost(hook, agent, args, output)
	}
	return output
}

func (m *Manager) safePost(hook PostHook, agent any, args Args, output types.Msg) (result types.Msg) {
	result = output
	defer func() {
		if r := recover(); r != nil {
			slog.Error("post-hook panicked, output unchanged", "panic", r)
			result = output
		}
	}()
	if replacement, ok := hook(agent, args, output); ok {
		return replacement
	}
	return output
}
