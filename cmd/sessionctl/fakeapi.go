package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/internal/apitest"
	"github.com/MrEthical07/goSession/internal/logging"
)

// demoAccounts are seeded into the fake so login works out of the box.
var demoAccounts = []struct {
	username, email, password, role string
}{
	{"demo", "demo@example.com", "demo-password", "user"},
	{"admin", "admin@example.com", "admin-password", "admin"},
}

func runFakeAPI(ctx context.Context, env *cmdEnv, args []string) error {
	fs := subFlags(env, "fakeapi")
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	var opts apitest.Options
	fs.StringVar(&opts.IDField, "id-field", "id", "user identifier key: id, _id or userId")
	fs.BoolVar(&opts.NumericIDs, "numeric-ids", false, "send identifiers as JSON numbers")
	fs.StringVar(&opts.MeShape, "me-shape", apitest.MeEnvelope, "/auth/me shape: envelope or bare")
	fs.StringVar(&opts.ListShape, "list-shape", apitest.ListArray, "purchase list shape: array, data or purchases")
	fs.StringVar(&opts.DailyShape, "daily-shape", apitest.DailySeries, "daily report shape: series, envelope, datemap, labels, unknown or missing")
	fs.BoolVar(&opts.RegisterLogsIn, "register-logs-in", false, "return a token from /auth/register")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := logging.NewWithWriter("info", "console", env.stderr)
	if err != nil {
		return err
	}
	opts.Logger = logger

	api := apitest.New(opts)
	today := time.Now().UTC()
	for i, acct := range demoAccounts {
		id := api.AddUser(acct.username, acct.email, acct.password, acct.role)
		for d := 0; d < 3; d++ {
			date := today.AddDate(0, 0, -d).Format(time.DateOnly)
			api.AddPurchase(id, fmt.Sprintf("item-%d-%d", i, d), float64(10*(d+1)), "groceries", date)
		}
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("fakeapi: listen %s: %w", *addr, err)
	}
	srv := &http.Server{Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}
	fmt.Fprintf(env.stdout, "fake api listening on http://%s\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
