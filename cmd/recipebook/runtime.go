package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/layer-3/recipebook/adapters/events"
	"github.com/layer-3/recipebook/adapters/store"
	"github.com/layer-3/recipebook/config"
	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/internal/slogx"
	"github.com/layer-3/recipebook/ports"
	"github.com/layer-3/recipebook/service"
	"github.com/layer-3/recipebook/transport/client"
)

// runtime holds the wired client for one command invocation
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	redis    *redis.Client
	eventPub ports.EventPublisher

	guard    *service.Guard
	auth     *client.AuthClient
	api      *client.APIClient
	sessions *service.SessionService

	closers []func() error
}

func loadConfig(c *cli.Context) config.Config {
	cfg := config.Load()
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("credentials") {
		cfg.CredentialsPath = c.String("credentials")
	}
	if c.IsSet("redis-url") {
		cfg.RedisURL = c.String("redis-url")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg
}

// newInfra connects Redis (when configured) and the session event publisher
func newInfra(c *cli.Context) (*runtime, error) {
	cfg := loadConfig(c)
	rt := &runtime{
		cfg:    cfg,
		logger: slogx.New(c.App.ErrWriter, cfg.LogLevel, cfg.LogJSON),
	}
	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		rt.redis = redis.NewClient(opts)
		rt.closers = append(rt.closers, rt.redis.Close)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: rt.redis,
			},
			wmLogger,
		)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		rt.closers = append(rt.closers, publisher.Close)
		rt.eventPub = events.NewWatermillPublisher(publisher)
		return rt, nil
	}

	// No broker: deliver session events in process and tell the user directly
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, wmLogger)
	messages, err := pubSub.Subscribe(c.Context, events.SessionEndedTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}
	go notifySessionEnded(c, messages)

	rt.closers = append(rt.closers, pubSub.Close)
	rt.eventPub = events.NewWatermillPublisher(pubSub)
	return rt, nil
}

// newRuntime wires the guarded API client on top of newInfra
func newRuntime(c *cli.Context) (*runtime, error) {
	rt, err := newInfra(c)
	if err != nil {
		return nil, err
	}

	var credStore ports.CredentialStore
	if rt.redis != nil {
		credStore = store.NewRedisCredentialStore(rt.redis, rt.cfg.SessionName, rt.cfg.RefreshTTL)
	} else {
		credStore = store.NewFileCredentialStore(rt.cfg.CredentialsPath)
	}

	rt.auth, err = client.NewAuthClient(rt.cfg.APIURL, &http.Client{Timeout: rt.cfg.HTTPTimeout})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.guard = service.NewGuard(credStore, rt.auth,
		service.WithRefreshTimeout(rt.cfg.RefreshTimeout),
		service.WithEventPublisher(rt.eventPub),
		service.WithLogger(rt.logger),
	)

	rt.api, err = client.NewAPIClient(rt.cfg.APIURL, &http.Client{Transport: rt.guard, Timeout: rt.cfg.HTTPTimeout})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.sessions = service.NewSessionService(rt.guard, rt.auth, rt.api, rt.eventPub, rt.logger)
	return rt, nil
}

func notifySessionEnded(c *cli.Context, messages <-chan *message.Message) {
	for msg := range messages {
		event, err := events.DecodeSessionEnded(msg)
		if err == nil && event.Reason == core.SessionEndRefreshFailed {
			fmt.Fprintln(c.App.ErrWriter, "Your session has expired. Please sign in again.")
		}
		msg.Ack()
	}
}

func (rt *runtime) Close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn("shutdown incomplete", "error", err)
	}
}
