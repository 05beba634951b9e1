package switchboard

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Comcast/chatflow/action"
	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/nlu"
	"github.com/Comcast/chatflow/session"
	"github.com/Comcast/chatflow/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greetGraph is a small two-step flow: "hi" moves the user from root
// to asked, "fine" moves them back, and a catch-all holds them in
// asked.
func greetGraph() *flow.Graph {
	return &flow.Graph{
		Nodes: []*flow.Node{
			flow.NewContextNode(&flow.ContextNode{ID: "n0", Title: "root"}),
			flow.NewContextNode(&flow.ContextNode{ID: "n2", Title: "asked"}),
			flow.NewIntentNode(&flow.IntentNode{
				ID:              "n1",
				Title:           "greet",
				TrainingPhrases: []string{"hi"},
				Contexts:        flow.NodeContexts{In: []string{"n0"}, Out: []string{"n2"}},
				Responses:       [][]string{{"Hi! How are you?"}},
			}),
			flow.NewIntentNode(&flow.IntentNode{
				ID:              "n3",
				Title:           "answer",
				TrainingPhrases: []string{"fine"},
				Contexts:        flow.NodeContexts{In: []string{"n2"}},
				Responses:       [][]string{{"Glad to hear it."}},
			}),
			flow.NewIntentNode(&flow.IntentNode{
				ID:        "n4",
				Title:     "asked catchall",
				Contexts:  flow.NodeContexts{In: []string{"n2"}},
				Responses: [][]string{{"I asked how you are!"}},
			}),
		},
		Edges: []*flow.Edge{
			{Source: "n0", Target: "n1"},
			{Source: "n1", Target: "n2"},
			{Source: "n2", Target: "n3"},
			{Source: "n2", Target: "n4"},
		},
	}
}

func newBoard(t *testing.T, conf Config) *Switchboard {
	t.Helper()
	if conf.Provider == nil {
		conf.Provider = nlu.NewMemory()
	}
	if conf.Sessions == nil {
		conf.Sessions = session.NewMemory()
	}
	return New(conf)
}

func userStates(t *testing.T, s *Switchboard, userID string) []string {
	t.Helper()
	states, err := s.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return states.Sorted()
}

func TestConversation(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{})
	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	// "hi" moves u1 from root to asked.
	p, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi! How are you?"}, p.Texts)
	assert.Equal(t, []string{"asked"}, userStates(t, s, "u1"))

	// Anything off-script in asked hits the scoped catch-all, which
	// keeps the user there.
	p, err = s.HandleMessage(ctx, "u1", "mumble")
	require.NoError(t, err)
	assert.Equal(t, []string{"I asked how you are!"}, p.Texts)
	assert.Equal(t, []string{"asked"}, userStates(t, s, "u1"))

	// "fine" resets to root (no explicit outputs on answer).
	p, err = s.HandleMessage(ctx, "u1", "fine")
	require.NoError(t, err)
	assert.Equal(t, []string{"Glad to hear it."}, p.Texts)
	assert.Equal(t, []string{"root"}, userStates(t, s, "u1"))

	// Users are independent.
	assert.Equal(t, []string{"root"}, userStates(t, s, "u2"))
}

func TestFallbackKeepsState(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{})
	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	// Nothing matches "what" in root (the catch-all is scoped to
	// asked): generic fallback, state unchanged.
	p, err := s.HandleMessage(ctx, "u1", "what")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackTexts, p.Texts)
	assert.Equal(t, []string{"root"}, userStates(t, s, "u1"))
}

func TestCustomFallbackTexts(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{FallbackTexts: []string{"Que?"}})
	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	p, err := s.HandleMessage(ctx, "u1", "what")
	require.NoError(t, err)
	assert.Equal(t, []string{"Que?"}, p.Texts)
}

func TestSubmitGraphRejectsBadGraphs(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{})

	err := s.SubmitGraph(ctx, &flow.Graph{})
	require.Error(t, err)
	assert.True(t, flow.IsGraphError(err))

	// A rejected graph leaves the empty table in place.
	p, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackTexts, p.Texts)
}

// failingProvider wraps the in-memory provider and fails creates on
// demand.
type failingProvider struct {
	*nlu.Memory
	failCreate bool
}

func (p *failingProvider) BatchCreateIntents(ctx context.Context, intents []nlu.Intent) error {
	if p.failCreate {
		return errors.New("quota exceeded")
	}
	return p.Memory.BatchCreateIntents(ctx, intents)
}

func TestSubmitGraphSyncFailure(t *testing.T) {
	ctx := context.Background()
	p := &failingProvider{Memory: nlu.NewMemory()}
	s := newBoard(t, Config{Provider: p})

	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	// A later failed submission keeps the previous table serving.
	p.failCreate = true
	err := s.SubmitGraph(ctx, greetGraph())
	var se *nlu.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create", se.Op)

	next, err := s.Engine().Route(flow.RootSet(), "greet")
	require.NoError(t, err)
	assert.Equal(t, []string{"asked"}, next.Sorted())
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	provider := nlu.NewMemory()
	s := newBoard(t, Config{Provider: provider})
	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	// Someone edits the provider out of band; Refresh picks it up
	// without a resync.
	require.NoError(t, provider.BatchCreateIntents(ctx, []nlu.Intent{{
		DisplayName:       "extra",
		InputContextNames: []string{nlu.ContextPath(nlu.DefaultAgent, "root")},
		OutputContexts: []nlu.Context{{
			Name: nlu.ContextPath(nlu.DefaultAgent, "root"),
		}},
	}}))
	require.NoError(t, s.Refresh(ctx))

	next, err := s.Engine().Route(flow.RootSet(), "extra")
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, next.Sorted())
}

func TestActionOverride(t *testing.T) {
	ctx := context.Background()
	actions := action.NewRegistry()
	actions.Register("record-greeting", func(ctx context.Context, inv action.Invocation) (*action.Outcome, error) {
		return &action.Outcome{
			States:   flow.NewStateSet("vip"),
			Messages: []nlu.Message{{Texts: []string{"Welcome back!"}}},
		}, nil
	})

	s := newBoard(t, Config{Actions: actions})

	g := greetGraph()
	g.Nodes[2].Intent.Action = "record-greeting"
	require.NoError(t, s.SubmitGraph(ctx, g))

	p, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome back!"}, p.Texts)
	assert.Equal(t, []string{"vip"}, userStates(t, s, "u1"))
}

func TestActionFailureKeepsRoutedResult(t *testing.T) {
	ctx := context.Background()
	actions := action.NewRegistry()
	actions.Register("record-greeting", func(ctx context.Context, inv action.Invocation) (*action.Outcome, error) {
		return nil, errors.New("boom")
	})

	s := newBoard(t, Config{Actions: actions})

	g := greetGraph()
	g.Nodes[2].Intent.Action = "record-greeting"
	require.NoError(t, s.SubmitGraph(ctx, g))

	// The user never sees the action error.
	p, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi! How are you?"}, p.Texts)
	assert.Equal(t, []string{"asked"}, userStates(t, s, "u1"))
}

func TestWebhookAppendsReply(t *testing.T) {
	ctx := context.Background()
	hook := &webhook.Client{
		TestResponse: &webhook.Response{
			StatusCode: http.StatusOK,
			Texts:      []string{"Your ticket number is 7."},
		},
	}

	s := newBoard(t, Config{Webhook: hook})

	g := greetGraph()
	g.Nodes[2].Intent.Fulfillment = true
	require.NoError(t, s.SubmitGraph(ctx, g))

	p, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi! How are you?", "Your ticket number is 7."}, p.Texts)
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{})

	g := greetGraph()
	g.Nodes = append(g.Nodes, flow.NewIntentNode(&flow.IntentNode{
		ID:        "n5",
		Title:     "daily reminder",
		Events:    []string{"REMINDER"},
		Contexts:  flow.NodeContexts{In: []string{"n0"}},
		Responses: [][]string{{"Don't forget to hydrate."}},
	}))
	g.Edges = append(g.Edges, &flow.Edge{Source: "n0", Target: "n5"})
	require.NoError(t, s.SubmitGraph(ctx, g))

	p, err := s.HandleEvent(ctx, "u1", "REMINDER")
	require.NoError(t, err)
	assert.Equal(t, []string{"Don't forget to hydrate."}, p.Texts)
	// Event intents keep the user where they are.
	assert.Equal(t, []string{"root"}, userStates(t, s, "u1"))

	// An unknown event is a fallback, not an error.
	p, err = s.HandleEvent(ctx, "u1", "NOPE")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackTexts, p.Texts)
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	s := newBoard(t, Config{})
	require.NoError(t, s.SubmitGraph(ctx, greetGraph()))

	_, err := s.HandleMessage(ctx, "u1", "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"asked"}, userStates(t, s, "u1"))

	require.NoError(t, s.RemoveUser(ctx, "u1"))
	assert.Equal(t, []string{"root"}, userStates(t, s, "u1"))
}

func TestPayloadFrom(t *testing.T) {
	p := payloadFrom([]nlu.Message{
		{Texts: []string{"first pool", "alt"}},
		{Texts: []string{"second pool"}},
		{Payload: map[string]interface{}{"v": 1}},
		{Payload: map[string]interface{}{"v": 2}},
	}, DefaultFallbackTexts)

	// First alternative of each pool; last payload wins.
	assert.Equal(t, []string{"first pool", "second pool"}, p.Texts)
	assert.Equal(t, map[string]interface{}{"v": 2}, p.Payload)

	p = payloadFrom(nil, []string{"fallback"})
	assert.Equal(t, []string{"fallback"}, p.Texts)
}
