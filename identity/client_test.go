package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/apitest"
	"github.com/MrEthical07/goSession/session"
)

func newClient(t *testing.T, baseURL string, idFields ...string) *Client {
	t.Helper()
	c, err := New(Config{Config: apiclient.Config{BaseURL: baseURL}, IDFields: idFields})
	require.NoError(t, err)
	return c
}

func TestLoginReturnsUserAndToken(t *testing.T) {
	api, srv := apitest.NewServer(t, apitest.Options{})
	id := api.AddUser("ana", "ana@example.com", "pw", "admin")
	c := newClient(t, srv.URL)

	res, err := c.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, User{ID: session.ID(id), Username: "ana", Email: "ana@example.com", Role: session.RoleAdmin}, res.User)
}

func TestLoginBadCredentials(t *testing.T) {
	api, srv := apitest.NewServer(t, apitest.Options{})
	api.AddUser("ana", "", "pw", "")
	c := newClient(t, srv.URL)

	_, err := c.Login(context.Background(), "ana", "wrong")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "invalid credentials", httpErr.Message)
	assert.True(t, IsUnauthorized(err))
}

func TestLoginMalformedResponses(t *testing.T) {
	bodies := []string{
		`{"user":{"id":1}}`,
		`{"token":"t"}`,
		`{"token":"t","user":null}`,
		`not json`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		c := newClient(t, srv.URL)
		_, err := c.Login(context.Background(), "a", "b")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("body %s: expected ErrMalformedResponse, got %v", body, err)
		}
		srv.Close()
	}
}

func TestLoginAcceptsUserWithoutIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"username":"ana","role":"admin"},"token":"tok"}`))
	}))
	defer srv.Close()

	res, err := newClient(t, srv.URL).Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, User{Username: "ana", Role: session.RoleAdmin}, res.User)
}

func TestLoginUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRegister(t *testing.T) {
	_, srv := apitest.NewServer(t, apitest.Options{})
	c := newClient(t, srv.URL)

	res, err := c.Register(context.Background(), RegisterInput{Username: "new", Email: "n@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, res.Token)
	assert.Nil(t, res.User)
	assert.Equal(t, "registered", res.Message)

	_, err = c.Register(context.Background(), RegisterInput{Username: "new", Password: "pw"})
	require.True(t, apiclient.IsStatus(err, http.StatusConflict), "got %v", err)
}

func TestRegisterLogsIn(t *testing.T) {
	_, srv := apitest.NewServer(t, apitest.Options{RegisterLogsIn: true})
	c := newClient(t, srv.URL)

	res, err := c.Register(context.Background(), RegisterInput{Username: "new", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "new", res.User.Username)
	assert.Equal(t, session.RoleUser, res.User.Role)
}

func TestMeShapesAndIDFields(t *testing.T) {
	cases := []apitest.Options{
		{MeShape: apitest.MeEnvelope},
		{MeShape: apitest.MeBare},
		{MeShape: apitest.MeBare, IDField: "_id"},
		{MeShape: apitest.MeEnvelope, IDField: "userId", NumericIDs: true},
	}
	for _, opts := range cases {
		api, srv := apitest.NewServer(t, opts)
		id := api.AddUser("ana", "", "pw", "user")
		c := newClient(t, srv.URL)

		u, err := c.Me(context.Background(), api.Token(id))
		require.NoError(t, err, "%+v", opts)
		assert.Equal(t, session.ID(id), u.ID, "%+v", opts)
		assert.Equal(t, session.RoleUser, u.Role)
	}
}

func TestMeCustomIDFields(t *testing.T) {
	api, srv := apitest.NewServer(t, apitest.Options{IDField: "_id"})
	id := api.AddUser("ana", "", "pw", "user")

	u, err := newClient(t, srv.URL, "id").Me(context.Background(), api.Token(id))
	require.NoError(t, err)
	assert.Empty(t, u.ID)
	assert.Equal(t, "ana", u.Username)

	u, err = newClient(t, srv.URL, "id", "_id").Me(context.Background(), api.Token(id))
	require.NoError(t, err)
	assert.Equal(t, session.ID(id), u.ID)
}

func TestMeUnauthorized(t *testing.T) {
	_, srv := apitest.NewServer(t, apitest.Options{})
	_, err := newClient(t, srv.URL).Me(context.Background(), "garbage")
	assert.True(t, IsUnauthorized(err), "got %v", err)
}

func TestParseMe(t *testing.T) {
	cases := []struct {
		body  string
		shape string
		id    session.ID
		role  session.Role
	}{
		{`{"user":{"id":"a","role":"ADMIN"}}`, "envelope", "a", session.RoleAdmin},
		{`{"_id":"b","role":"user"}`, "bare", "b", session.RoleUser},
		{`{"userId":12}`, "bare", "12", session.RoleNone},
		{`{"user":{},"id":"c"}`, "bare", "c", session.RoleNone},
		{`{"user":{"username":"x","role":"admin"}}`, "envelope", "", session.RoleAdmin},
		{`{"username":"x","role":"user"}`, "bare", "", session.RoleUser},
		{`{"id":"","_id":"d"}`, "bare", "d", session.RoleNone},
	}
	for _, tc := range cases {
		u, shape, err := parseMe([]byte(tc.body), DefaultIDFields)
		require.NoError(t, err, tc.body)
		assert.Equal(t, tc.shape, shape, tc.body)
		assert.Equal(t, tc.id, u.ID, tc.body)
		assert.Equal(t, tc.role, u.Role, tc.body)
	}

	for _, bad := range []string{`[]`, `{}`, `{"user":{}}`, `"x"`, `{"id":true}`} {
		_, _, err := parseMe([]byte(bad), DefaultIDFields)
		assert.ErrorIs(t, err, ErrMalformedResponse, bad)
	}
}

func TestUserApplyTo(t *testing.T) {
	s := session.Session{Token: "t", ExpiresAt: 5, Role: session.RoleUser}
	User{ID: "1", Username: "ana", Role: session.RoleAdmin}.ApplyTo(&s)
	assert.Equal(t, session.Session{Identity: "1", Username: "ana", Role: session.RoleAdmin, Token: "t", ExpiresAt: 5}, s)
}
