package action

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/chatflow/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	var got Invocation
	r.Register("record", func(ctx context.Context, inv Invocation) (*Outcome, error) {
		got = inv
		return &Outcome{States: flow.NewStateSet("recorded")}, nil
	})

	out, err := r.Invoke(ctx, "record", Invocation{
		UserID:  "u1",
		Input:   "hi",
		Current: flow.RootSet(),
		Next:    flow.NewStateSet("asked"),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.States.Equal(flow.NewStateSet("recorded")))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "hi", got.Input)

	// Re-registering replaces.
	r.Register("record", func(ctx context.Context, inv Invocation) (*Outcome, error) {
		return nil, nil
	})
	out, err = r.Invoke(ctx, "record", Invocation{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegistryUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "nope", Invocation{})
	var ua *UnknownActionError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "nope", ua.Name)
}

func TestRegistryHandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("explode", func(ctx context.Context, inv Invocation) (*Outcome, error) {
		return nil, boom
	})
	_, err := r.Invoke(context.Background(), "explode", Invocation{})
	assert.ErrorIs(t, err, boom)
}

func TestECMAScript(t *testing.T) {
	ctx := context.Background()

	h, err := ECMAScript(`
		if (_.input == "survey") {
			return {
				states: _.next.concat(["surveyed"]),
				messages: [{text: ["Thanks for the feedback, " + _.userId]}]
			};
		}
		return null;
	`)
	require.NoError(t, err)

	out, err := h(ctx, Invocation{
		UserID:  "u1",
		Input:   "survey",
		Current: flow.RootSet(),
		Next:    flow.NewStateSet("asked"),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.States.Equal(flow.NewStateSet("asked", "surveyed")))
	require.Len(t, out.Messages, 1)
	assert.Equal(t, []string{"Thanks for the feedback, u1"}, out.Messages[0].Texts)

	// null keeps the routed result.
	out, err = h(ctx, Invocation{Input: "other", Next: flow.RootSet(), Current: flow.RootSet()})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestECMAScriptMessagesOnly(t *testing.T) {
	h, err := ECMAScript(`return {messages: [{payload: {kind: "card"}}]};`)
	require.NoError(t, err)

	out, err := h(context.Background(), Invocation{
		Current: flow.RootSet(),
		Next:    flow.RootSet(),
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	// No states override.
	assert.Nil(t, out.States)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, map[string]interface{}{"kind": "card"}, out.Messages[0].Payload)
}

func TestECMAScriptCompileError(t *testing.T) {
	_, err := ECMAScript(`this is not javascript`)
	require.Error(t, err)
}

func TestECMAScriptRuntimeError(t *testing.T) {
	h, err := ECMAScript(`return missing.field;`)
	require.NoError(t, err)

	_, err = h(context.Background(), Invocation{
		Current: flow.RootSet(),
		Next:    flow.RootSet(),
	})
	require.Error(t, err)
}

func TestECMAScriptIsolated(t *testing.T) {
	// Each invocation gets a fresh runtime: globals don't persist.
	h, err := ECMAScript(`
		if (typeof seen === "undefined") {
			seen = true;
			return {states: ["first"]};
		}
		return {states: ["again"]};
	`)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := h(context.Background(), Invocation{
			Current: flow.RootSet(),
			Next:    flow.RootSet(),
		})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.True(t, out.States.Equal(flow.NewStateSet("first")), "call %d", i)
	}
}
