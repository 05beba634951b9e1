package nlu

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Provider.
//
// It exists so that tests and local runs don't need a real NLU
// service.  Classification is deliberately simple: an event matches
// when an intent declares it, free text matches a training phrase
// exactly (case-insensitive, whitespace-trimmed), and a fallback
// intent catches anything else within its input contexts.  Matching
// considers only intents whose input contexts intersect the query's
// active contexts (an intent with no input contexts is always in
// scope).  Replies return the intent's configured messages untouched,
// so pool selection stays deterministic.
type Memory struct {
	mu      sync.RWMutex
	intents []Intent
}

var _ Provider = (*Memory)(nil)

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{}
}

// ListIntents returns a copy of the registered intents.
func (m *Memory) ListIntents(ctx context.Context) ([]Intent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Intent{}, m.intents...), nil
}

// BatchDeleteIntents removes intents by display name.
func (m *Memory) BatchDeleteIntents(ctx context.Context, intents []Intent) error {
	doomed := make(map[string]bool, len(intents))
	for _, in := range intents {
		doomed[in.DisplayName] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.intents[:0]
	for _, in := range m.intents {
		if !doomed[in.DisplayName] {
			kept = append(kept, in)
		}
	}
	m.intents = kept
	return nil
}

// BatchCreateIntents registers the given intents.  Like the real
// provider, it does not police display-name collisions; the compiler
// is responsible for never producing any.
func (m *Memory) BatchCreateIntents(ctx context.Context, intents []Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intents...)
	return nil
}

// Detect classifies a query.  Returns (nil, nil) when nothing matches.
func (m *Memory) Detect(ctx context.Context, userID string, q Query) (*Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make(map[string]bool, len(q.Contexts))
	for _, c := range q.Contexts {
		active[ShortContextName(c)] = true
	}

	var fallback *Intent
	text := strings.ToLower(strings.TrimSpace(q.Text))

	for i := range m.intents {
		in := &m.intents[i]
		if !inScope(in, active) {
			continue
		}

		if q.Event != "" {
			for _, ev := range in.Events {
				if ev == q.Event {
					return detection(in), nil
				}
			}
			continue
		}

		if in.IsFallback && fallback == nil {
			fallback = in
		}

		for _, tp := range in.TrainingPhrases {
			if strings.ToLower(strings.TrimSpace(phraseText(tp))) == text && text != "" {
				return detection(in), nil
			}
		}
	}

	if q.Event == "" && fallback != nil {
		return detection(fallback), nil
	}

	return nil, nil
}

func inScope(in *Intent, active map[string]bool) bool {
	if len(in.InputContextNames) == 0 {
		return true
	}
	for _, name := range in.InputContextNames {
		if active[ShortContextName(name)] {
			return true
		}
	}
	return false
}

func phraseText(tp TrainingPhrase) string {
	var b strings.Builder
	for _, p := range tp.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func detection(in *Intent) *Detection {
	return &Detection{
		Intent:   in.DisplayName,
		Action:   in.Action,
		Webhook:  in.WebhookEnabled,
		Messages: append([]Message{}, in.Messages...),
	}
}
