package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/apitest"
)

type cli struct {
	t      *testing.T
	config string
	api    *apitest.API
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	api, srv := apitest.NewServer(t, apitest.Options{})
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[identity]
base_url = %q

[store]
backend = "file"
dir = %q

[log]
level = "error"
format = "json"
`, srv.URL, filepath.Join(dir, "store"))
	path := filepath.Join(dir, "sessionctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &cli{t: t, config: path, api: api}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := run(ctx, append([]string{"-config", c.config}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("alice", "alice@example.com", "pw-alice", "admin")

	out, err := c.run("login", "-username", "alice", "-password", "pw-alice")
	require.NoError(t, err)
	assert.Contains(t, out, "user: alice (admin)")

	out, err = c.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "state: authenticated")
	assert.Contains(t, out, "user: alice (admin)")

	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "alice"`)
	assert.NotContains(t, out, "token")

	out, err = c.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	out, err = c.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "state: unauthenticated")
}

func TestLoginRequiresCredentials(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("login", "-username", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-password")
}

func TestLoginWithToken(t *testing.T) {
	c := newCLI(t)
	id := c.api.AddUser("bob", "bob@example.com", "pw", "user")

	out, err := c.run("login", "-token", c.api.Token(id))
	require.NoError(t, err)
	assert.Contains(t, out, "user: bob (user)")
}

func TestWhoamiWithoutSession(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("whoami")
	require.ErrorIs(t, err, goSession.ErrNoSession)
}

func TestPurchasesAndDashboard(t *testing.T) {
	c := newCLI(t)
	id := c.api.AddUser("carol", "carol@example.com", "pw", "user")
	today := time.Now().UTC().Format(time.DateOnly)
	c.api.AddPurchase(id, "coffee", 3.5, "food", today)

	_, err := c.run("login", "-username", "carol", "-password", "pw")
	require.NoError(t, err)

	out, err := c.run("purchases", "add", "-item", "book", "-amount", "12", "-category", "media", "-date", today)
	require.NoError(t, err)
	assert.Contains(t, out, `"item": "book"`)

	out, err = c.run("purchases", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "coffee")
	assert.Contains(t, out, "book")

	_, err = c.run("purchases", "add", "-item", "bad", "-amount", "0", "-date", today)
	require.Error(t, err)

	out, err = c.run("dashboard", "-days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, today)
	assert.Contains(t, out, "15.50")

	_, err = c.run("dashboard", "-view", "roles")
	require.Error(t, err)
}

func TestUsersRequiresAdmin(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("dave", "dave@example.com", "pw", "user")
	_, err := c.run("login", "-username", "dave", "-password", "pw")
	require.NoError(t, err)

	_, err = c.run("users", "list")
	require.Error(t, err)
}

func TestUsersListMarksCurrentAccount(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("erin", "erin@example.com", "pw", "admin")
	c.api.AddUser("frank", "frank@example.com", "pw", "user")
	_, err := c.run("login", "-username", "erin", "-password", "pw")
	require.NoError(t, err)

	out, err := c.run("users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "frank")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "erin") {
			assert.Contains(t, line, "(you)")
		}
		if strings.Contains(line, "frank") {
			assert.NotContains(t, line, "(you)")
		}
	}
}

func TestLintReportsHighFindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lint.toml")
	cfg := `
[identity]
base_url = "http://api.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-config", path, "lint"}, &stdout, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "identity_plaintext_http")
}

func TestUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"bogus"}, &bytes.Buffer{}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "commands:")
}

func TestNoCommandPrintsUsage(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), nil, &bytes.Buffer{}, &stderr)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "usage: sessionctl")
}

func TestWatchEndsWhenAnotherProcessLogsOut(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("gina", "gina@example.com", "pw", "user")
	_, err := c.run("login", "-username", "gina", "-password", "pw")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var watchOut bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-config", c.config, "watch", "-interval", "10ms"}, &watchOut, &bytes.Buffer{})
	}()

	// Give watch time to hydrate and start following the store.
	time.Sleep(200 * time.Millisecond)
	_, err = c.run("logout")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("watch did not notice the external logout")
	}
	assert.Contains(t, watchOut.String(), "session ended")
}
