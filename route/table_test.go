package route

import (
	"context"
	"testing"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/nlu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireIntent(name string, in []string, out []string) nlu.Intent {
	intent := nlu.Intent{DisplayName: name}
	for _, state := range in {
		intent.InputContextNames = append(intent.InputContextNames,
			nlu.ContextPath(nlu.DefaultAgent, state))
	}
	for _, state := range out {
		intent.OutputContexts = append(intent.OutputContexts, nlu.Context{
			Name:          nlu.ContextPath(nlu.DefaultAgent, state),
			LifespanCount: nlu.DefaultLifespan,
		})
	}
	return intent
}

func TestBuild(t *testing.T) {
	tab := Build([]nlu.Intent{
		wireIntent("greet", []string{"root"}, []string{"asked"}),
		wireIntent("help", []string{"root", "asked"}, []string{"root"}),
	})

	assert.Equal(t, []string{"asked", "root"}, tab.States())
	assert.Equal(t, 2, tab.Len())

	// Full provider paths are trimmed to bare state names.
	next, have := tab.Next("root", "greet")
	require.True(t, have)
	assert.Equal(t, []string{"asked"}, next)

	next, have = tab.Next("asked", "help")
	require.True(t, have)
	assert.Equal(t, []string{"root"}, next)

	_, have = tab.Next("asked", "greet")
	assert.False(t, have)
	_, have = tab.Next("nowhere", "greet")
	assert.False(t, have)
}

func TestBuildDuplicateCells(t *testing.T) {
	// Two intents landing on the same cell merge without duplicate
	// next states.
	tab := Build([]nlu.Intent{
		wireIntent("greet", []string{"root"}, []string{"asked", "root"}),
		wireIntent("greet", []string{"root"}, []string{"root", "extra"}),
	})

	next, have := tab.Next("root", "greet")
	require.True(t, have)
	assert.Equal(t, []string{"asked", "root", "extra"}, next)
}

func TestRouteUnion(t *testing.T) {
	tab := Build([]nlu.Intent{
		wireIntent("go", []string{"a"}, []string{"x"}),
		wireIntent("go", []string{"b"}, []string{"y"}),
	})

	// Both current states license the intent: next is the union.
	next, err := tab.Route(flow.NewStateSet("a", "b"), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, next.Sorted())

	// Only one does: partial coverage is fine.
	next, err = tab.Route(flow.NewStateSet("a", "c"), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, next.Sorted())
}

func TestResyncStableTable(t *testing.T) {
	// Replacing the provider's intents with the same compiled set
	// twice in a row yields the same routing table both times.
	compiled := []flow.CompiledIntent{
		{
			DisplayName:     "greet",
			TrainingPhrases: []string{"hi"},
			InputContexts:   []string{"root"},
			OutputContexts:  []string{"asked"},
		},
		{
			DisplayName:    "lost",
			InputContexts:  []string{"root", "asked"},
			OutputContexts: []string{"root", "asked"},
			Fallback:       true,
		},
	}

	ctx := context.Background()
	provider := nlu.NewMemory()
	s := &nlu.Sync{Provider: provider}

	require.NoError(t, s.Replace(ctx, compiled))
	first, err := provider.ListIntents(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Replace(ctx, compiled))
	second, err := provider.ListIntents(ctx)
	require.NoError(t, err)

	tab1, tab2 := Build(first), Build(second)
	assert.Equal(t, tab1, tab2)
	assert.Equal(t, tab1.States(), tab2.States())
}

func TestRouteNoRoute(t *testing.T) {
	tab := Build([]nlu.Intent{
		wireIntent("go", []string{"a"}, []string{"x"}),
	})

	_, err := tab.Route(flow.NewStateSet("b", "c"), "go")
	var nr *NoRouteError
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, "go", nr.Intent)
	assert.Equal(t, []string{"b", "c"}, nr.States)

	_, err = tab.Route(flow.NewStateSet("a"), "unknown")
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, "unknown", nr.Intent)
}
