package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultSlackAPIURL is Slack's message-posting endpoint.
const DefaultSlackAPIURL = "https://slack.com/api/chat.postMessage"

// Slack handles Slack's Events API: url_verification on setup, then
// event_callback per message.  Replies go out through
// chat.postMessage.
type Slack struct {
	Board    Board
	BotToken string
	Logger   *slog.Logger

	// APIURL overrides DefaultSlackAPIURL, mainly for tests.
	APIURL string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type slackEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type    string `json:"type"`
	BotID   string `json:"bot_id"`
	Text    string `json:"text"`
	User    string `json:"user"`
	Channel string `json:"channel"`
}

// Router mounts the events endpoint.
func (a *Slack) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/events", a.handleEvents)
	return r
}

func (a *Slack) handleEvents(w http.ResponseWriter, req *http.Request) {
	var env slackEnvelope
	if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case "url_verification":
		fmt.Fprint(w, env.Challenge)
	case "event_callback":
		// Slack wants its 200 promptly; the actual work runs
		// detached from this request.
		w.WriteHeader(http.StatusOK)
		go a.handleEvent(context.WithoutCancel(req.Context()), env.Event)
	default:
		// Slack retries anything but a 2xx, so unknown envelope
		// types (app_rate_limited and friends) get acknowledged.
		a.logf("unhandled slack envelope type", "type", env.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (a *Slack) handleEvent(ctx context.Context, ev slackEvent) {
	// Ignore messages from bots, including ourselves.
	if ev.BotID != "" {
		return
	}
	if ev.Type != "message" {
		a.logf("unexpected slack callback type", "type", ev.Type)
		return
	}

	a.logf("slack message", "user", ev.User, "channel", ev.Channel)
	p := deliver(ctx, a.Board, a.Logger, "slack", ev.User, ev.Text)

	if err := a.postMessage(ctx, ev.Channel, p.Texts); err != nil {
		a.logf("slack reply failed", "channel", ev.Channel, "err", err)
	}
}

func (a *Slack) postMessage(ctx context.Context, channel string, texts []string) error {
	body, err := json.Marshal(map[string]string{
		"channel": channel,
		"text":    strings.Join(texts, "\n"),
	})
	if err != nil {
		return err
	}

	apiURL := a.APIURL
	if apiURL == "" {
		apiURL = DefaultSlackAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.BotToken)

	client := a.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack api returned %s", resp.Status)
	}
	return nil
}

func (a *Slack) logf(msg string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Info(msg, args...)
	}
}
