package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Comcast/chatflow/action"
	"github.com/Comcast/chatflow/adapter"
	"github.com/Comcast/chatflow/config"
	"github.com/Comcast/chatflow/gateway"
	"github.com/Comcast/chatflow/graphstore"
	"github.com/Comcast/chatflow/logging"
	"github.com/Comcast/chatflow/nlu"
	"github.com/Comcast/chatflow/session"
	"github.com/Comcast/chatflow/switchboard"
	"github.com/Comcast/chatflow/tools"
	"github.com/Comcast/chatflow/trigger"
	"github.com/Comcast/chatflow/webhook"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var graphFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, graphFile)
		},
	}

	fs := cmd.Flags()
	fs.String("http-addr", "", "HTTP listen address")
	fs.String("store", "", "session store: memory, bolt, or redis")
	fs.String("bolt-path", "", "bbolt session database path")
	fs.String("graph-path", "", "bbolt graph version database path")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&graphFile, "graph", "", "flow graph file to apply at startup")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, graphFile string) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)

	sessions, closeSessions, err := openSessions(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	var graphs *graphstore.Store
	if cfg.GraphPath != "" {
		graphs = graphstore.NewStore(cfg.GraphPath)
		if err := graphs.Open(); err != nil {
			return fmt.Errorf("open graph store: %w", err)
		}
		defer graphs.Close()
	}

	var hook *webhook.Client
	if cfg.Webhook.URL != "" {
		jar, err := webhook.NewJar()
		if err != nil {
			return err
		}
		hook = &webhook.Client{
			URL:     cfg.Webhook.URL,
			Token:   cfg.Webhook.Token,
			Timeout: cfg.Webhook.Timeout,
			Jar:     jar,
		}
	}

	board := switchboard.New(switchboard.Config{
		Provider:      nlu.NewMemory(),
		Sessions:      sessions,
		Agent:         cfg.Agent,
		Actions:       action.NewRegistry(),
		Webhook:       hook,
		Graphs:        graphs,
		Logger:        logger,
		FallbackTexts: cfg.Fallback,
	})

	if graphFile != "" {
		g, err := tools.DecodeGraphFile(graphFile)
		if err != nil {
			return fmt.Errorf("read graph %s: %w", graphFile, err)
		}
		if err := board.SubmitGraph(ctx, g); err != nil {
			return fmt.Errorf("apply graph %s: %w", graphFile, err)
		}
		logger.Info("startup graph applied", "file", graphFile)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	triggers := trigger.NewTriggers(func(ctx context.Context, userID, event string) {
		if _, err := board.HandleEvent(ctx, userID, event); err != nil {
			logger.Warn("trigger event failed", "user", userID, "event", event, "err", err)
		}
	})
	defer triggers.Stop()
	for _, t := range cfg.Triggers {
		err := triggers.Add(ctx, trigger.Entry{
			ID:       t.ID,
			UserID:   t.User,
			Event:    t.Event,
			Schedule: t.Schedule,
		})
		if err != nil {
			return fmt.Errorf("trigger %s: %w", t.ID, err)
		}
	}

	gw := &gateway.Gateway{
		Board:  board,
		Graphs: graphs,
		Logger: logger,
	}

	r := chi.NewRouter()
	r.Mount("/", gw.Router())

	custom := &adapter.Custom{Board: board, Logger: logger}
	r.Mount("/adapter/custom", custom.Router())

	ws := &adapter.WebSocket{Board: board, Logger: logger}
	r.Get("/adapter/ws", ws.Handler)

	if cfg.Slack.Enabled {
		slack := &adapter.Slack{
			Board:    board,
			BotToken: cfg.Slack.BotToken,
			Logger:   logger,
		}
		r.Mount("/adapter/slack", slack.Router())
	}

	if cfg.MQTT.Enabled {
		mq := &adapter.MQTT{
			Board:      board,
			Logger:     logger,
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			Username:   cfg.MQTT.Username,
			Password:   cfg.MQTT.Password,
			SubTopic:   cfg.MQTT.SubTopic,
			ReplyTopic: cfg.MQTT.ReplyTopic,
			QoS:        byte(cfg.MQTT.QoS),
		}
		if err := mq.Start(ctx); err != nil {
			return err
		}
		defer mq.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-sigs:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func openSessions(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Store {
	case "bolt":
		s := session.NewBolt(cfg.BoltPath)
		if err := s.Open(); err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return s, func() { s.Close() }, nil
	case "redis":
		var opts []session.RedisOption
		if cfg.Redis.TTL > 0 {
			opts = append(opts, session.WithTTL(cfg.Redis.TTL))
		}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, session.WithPrefix(cfg.Redis.Prefix))
		}
		s := session.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return s, func() { s.Close() }, nil
	default:
		return session.NewMemory(), func() {}, nil
	}
}
