package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/apiclient"
)

// Endpoint paths.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathMe       = "/auth/me"
)

// Config configures a Client.
type Config struct {
	apiclient.Config

	// IDFields overrides DefaultIDFields.
	IDFields []string
}

// Client talks to the Identity Service.
type Client struct {
	api      *apiclient.Client
	idFields []string
	logger   *zap.Logger
}

// New returns a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	api, err := apiclient.New(cfg.Config)
	if err != nil {
		return nil, err
	}
	idFields := cfg.IDFields
	if len(idFields) == 0 {
		idFields = DefaultIDFields
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, idFields: idFields, logger: logger}, nil
}

// Login exchanges a username and password for a token and profile. A 2xx
// response missing either is ErrMalformedResponse.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	body, err := c.api.Do(ctx, apiclient.Request{
		Op:     "auth.login",
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return LoginResult{}, err
	}

	var resp struct {
		User  json.RawMessage `json:"user"`
		Token string          `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(resp.Token) == "" {
		return LoginResult{}, fmt.Errorf("%w: missing token", ErrMalformedResponse)
	}
	if len(resp.User) == 0 || string(resp.User) == "null" {
		return LoginResult{}, fmt.Errorf("%w: missing user", ErrMalformedResponse)
	}
	user, err := decodeUser(resp.User, c.idFields)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: resp.Token}, nil
}

// Register creates an account. The service may or may not log the user in;
// callers check RegisterResult.Token.
func (c *Client) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	body, err := c.api.Do(ctx, apiclient.Request{
		Op:     "auth.register",
		Method: http.MethodPost,
		Path:   PathRegister,
		Body:   in,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	var resp struct {
		User    json.RawMessage `json:"user"`
		Token   string          `json:"token"`
		Message string          `json:"message"`
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return RegisterResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	out := RegisterResult{Token: resp.Token, Message: resp.Message}
	if len(resp.User) > 0 && string(resp.User) != "null" {
		user, err := decodeUser(resp.User, c.idFields)
		if err != nil {
			c.logger.Debug("register response user ignored", zap.Error(err))
		} else {
			out.User = &user
		}
	}
	return out, nil
}

// Me fetches the profile for token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	body, err := c.api.Do(ctx, apiclient.Request{
		Op:    "auth.me",
		Path:  PathMe,
		Token: token,
	})
	if err != nil {
		return User{}, err
	}
	user, shape, err := parseMe(body, c.idFields)
	if err != nil {
		return User{}, err
	}
	c.logger.Debug("profile fetched", zap.String("shape", shape), zap.String("identity", user.ID.String()))
	return user, nil
}
