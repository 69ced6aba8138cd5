package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/apiclient"
)

// TokenSource supplies the bearer token of the active session.
type TokenSource interface {
	Token() (string, bool)
}

// Config configures a Client.
type Config struct {
	apiclient.Config

	// Tokens is required.
	Tokens TokenSource
	// OnUnauthorized runs after any 401 response.
	OnUnauthorized func(ctx context.Context)
	// IDFields overrides identity.DefaultIDFields when decoding users.
	IDFields []string
}

// Client calls the Resource API on behalf of the active session.
type Client struct {
	api            *apiclient.Client
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	idFields       []string
	logger         *zap.Logger
}

// New returns a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("resource: token source required")
	}
	api, err := apiclient.New(cfg.Config)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:            api,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		idFields:       cfg.IDFields,
		logger:         logger.Named("resource"),
	}, nil
}

// do sends req with the session token.
func (c *Client) do(ctx context.Context, req apiclient.Request) ([]byte, error) {
	token, ok := c.tokens.Token()
	if !ok || token == "" {
		return nil, ErrNoSession
	}
	req.Token = token

	body, err := c.api.Do(ctx, req)
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		c.logger.Info("resource api rejected session token", zap.String("op", req.Op))
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return body, err
}
