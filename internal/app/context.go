package app

import (
	"context"

	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/infra/config"
	"github.com/datallboy/newsreader/internal/infra/logger"
	"github.com/datallboy/newsreader/internal/nntp"
)

// SessionFactory opens a fresh news server session. The caller owns it
// and must Close it.
type SessionFactory func(ctx context.Context) (domain.Reader, error)

// Context hold the core environment and shared resources for the reader.
// Sessions are never shared: every consumer opens its own through Open.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Open SessionFactory
}

// NewContext initializes the base environment with sessions dialed from
// cfg.Server.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
		Open:   DialSessions(cfg, log),
	}
}

// DialSessions returns a factory connecting to the configured server.
func DialSessions(cfg *config.Config, log *logger.Logger) SessionFactory {
	ep := nntp.Endpoint{Host: cfg.Server.Host, Service: cfg.Server.Port}
	opts := []nntp.Option{
		nntp.WithLogger(log),
		nntp.WithConnectTimeout(cfg.Server.ConnectTimeout),
		nntp.WithTimeout(cfg.Server.Timeout),
		nntp.WithDotUnstuffing(cfg.Server.DotUnstuff),
		nntp.WithAuth(cfg.Server.Username, cfg.Server.Password),
	}

	return func(ctx context.Context) (domain.Reader, error) {
		c, err := nntp.Connect(ctx, ep, opts...)
		if err != nil {
			return nil, err
		}
		log.Debug("session %s opened to %s", c.ID(), ep)
		return c, nil
	}
}
