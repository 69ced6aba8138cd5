package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/session"
)

// PathUsers is the admin user collection.
const PathUsers = "/users"

// ListUsers returns every account. The API answers 403 for non-admins.
func (c *Client) ListUsers(ctx context.Context) ([]identity.User, error) {
	body, err := c.do(ctx, apiclient.Request{
		Op:   "users.list",
		Path: PathUsers,
	})
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		var env struct {
			Data  []json.RawMessage `json:"data"`
			Users []json.RawMessage `json:"users"`
		}
		if json.Unmarshal(body, &env) != nil || (env.Data == nil && env.Users == nil) {
			return nil, fmt.Errorf("%w: unrecognised user list shape", ErrMalformedResponse)
		}
		raws = env.Data
		if raws == nil {
			raws = env.Users
		}
	}

	users := make([]identity.User, 0, len(raws))
	for _, raw := range raws {
		u, err := identity.DecodeUser(raw, c.idFields)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateUserRole sets the role of user id and returns the updated profile.
func (c *Client) UpdateUserRole(ctx context.Context, id string, role session.Role) (identity.User, error) {
	if role != session.RoleUser && role != session.RoleAdmin {
		return identity.User{}, fmt.Errorf("resource: unsupported role %q", role)
	}
	body, err := c.do(ctx, apiclient.Request{
		Op:     "users.update_role",
		Method: http.MethodPatch,
		Path:   PathUsers + "/" + url.PathEscape(id) + "/role",
		Body:   map[string]string{"role": string(role)},
	})
	if err != nil {
		return identity.User{}, err
	}

	var env struct {
		User json.RawMessage `json:"user"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.User) > 0 {
		body = env.User
	}
	return identity.DecodeUser(body, c.idFields)
}

// DeleteUser removes user id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, apiclient.Request{
		Op:     "users.delete",
		Method: http.MethodDelete,
		Path:   PathUsers + "/" + url.PathEscape(id),
	})
	return err
}

// IsCurrentUser reports whether u is the account behind s. Only identifiers
// are compared; usernames are not unique across renames.
func IsCurrentUser(s session.Session, u identity.User) bool {
	return s.Identity != "" && s.Identity == u.ID
}
