package hooks_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborly/reagent/packages/agent/hooks"
	"github.com/arborly/reagent/packages/agent/types"
)

func TestRunPreAppliesHooksInRegistrationOrder(t *testing.T) {
	m := hooks.New()
	var order []string
	m.RegisterPre(func(agent any, args hooks.Args) hooks.Args {
		order = append(order, "first")
		args["first"] = true
		return args
	})
	m.RegisterPre(func(agent any, args hooks.Args) hooks.Args {
		order = append(order, "second")
		args["second"] = true
		return args
	})

	out := m.RunPre(nil, hooks.Args{})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, hooks.Args{"first": true, "second": true}, out)
}

// Property 8 (spec.md §8): a throwing pre-hook does not change the args
// observed by later hooks or by the core.
func TestPanickingPreHookLeavesArgsUnchangedForLaterHooks(t *testing.T) {
	m := hooks.New()
	m.RegisterPre(func(agent any, args hooks.Args) hooks.Args {
		args["poisoned"] = true
		panic("boom")
	})

	var seenByNext hooks.Args
	m.RegisterPre(func(agent any, args hooks.Args) hooks.Args {
		seenByNext = args
		return args
	})

	out := m.RunPre(nil, hooks.Args{"original": true})
	assert.Equal(t, hooks.Args{"original": true}, out)
	assert.Equal(t, hooks.Args{"original": true}, seenByNext)
}

func TestRunPostAppliesReplacementsInOrder(t *testing.T) {
	m := hooks.New()
	m.RegisterPost(func(agent any, args hooks.Args, output types.Msg) (types.Msg, bool) {
		return types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "replaced once"}), true
	})
	m.RegisterPost(func(agent any, args hooks.Args, output types.Msg) (types.Msg, bool) {
		return types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: output.Text() + " twice"}), true
	})

	original := types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "original"})
	out := m.RunPost(nil, hooks.Args{}, original)
	assert.Equal(t, "replaced once twice", out.Text())
}

func TestRunPostPassThroughWhenHookDeclines(t *testing.T) {
	m := hooks.New()
	m.RegisterPost(func(agent any, args hooks.Args, output types.Msg) (types.Msg, bool) {
		return types.Msg{}, false
	})

	original := types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "unchanged"})
	out := m.RunPost(nil, hooks.Args{}, original)
	assert.Equal(t, "unchanged", out.Text())
}

// Property 8 (spec.md §8): a throwing post-hook does not change the output
// observed by later post-hooks or the caller.
func TestPanickingPostHookLeavesOutputUnchangedForLaterHooks(t *testing.T) {
	m := hooks.New()
	m.RegisterPost(func(agent any, args hooks.Args, output types.Msg) (types.Msg, bool) {
		panic("boom")
	})
	var seenByNext string
	m.RegisterPost(func(agent any, args hooks.Args, output types.Msg) (types.Msg, bool) {
		seenByNext = output.Text()
		return output, false
	})

	original := types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "original"})
	out := m.RunPost(nil, hooks.Args{}, original)
	assert.Equal(t, "original", out.Text())
	assert.Equal(t, "original", seenByNext)
}

// spec.md §5: "the hook registry is lock-protected for register/remove/
// clear; dispatch takes a stable snapshot for each reply." Registering
// concurrently with a run must not race (and must not panic under -race).
func TestConcurrentRegistrationDuringRunDoesNotRace(t *testing.T) {
	m := hooks.New()
	m.RegisterPre(func(_ any, args hooks.Args) hooks.Args { return args })
	m.RegisterPost(func(_ any, _ hooks.Args, output types.Msg) (types.Msg, bool) { return output, false })

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.RunPre(nil, hooks.Args{})
			m.RunPost(nil, hooks.Args{}, types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "x"}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.RegisterPre(func(_ any, args hooks.Args) hooks.Args { return args })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.RegisterPost(func(_ any, _ hooks.Args, output types.Msg) (types.Msg, bool) { return output, false })
		}
	}()

	wg.Wait()
}
