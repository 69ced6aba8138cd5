package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/session"
)

func runLogin(ctx context.Context, env *cmdEnv, args []string) error {
	fs := subFlags(env, "login")
	username := fs.String("username", "", "account name")
	password := fs.String("password", os.Getenv("GOSESSION_PASSWORD"), "password (default $GOSESSION_PASSWORD)")
	token := fs.String("token", "", "log in with an existing bearer token instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := env.app.manager
	var (
		s   session.Session
		err error
	)
	if *token != "" {
		s, err = m.Login(ctx, goSession.Credentials{Token: *token})
	} else {
		if *password == "" && *username != "" {
			if *password, err = promptPassword(env); err != nil {
				return err
			}
		}
		if err := requireArgs(fs, "username", "password"); err != nil {
			return err
		}
		s, err = m.LoginWithPassword(ctx, *username, *password)
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	printSession(env, s)
	return nil
}

func runRegister(ctx context.Context, env *cmdEnv, args []string) error {
	fs := subFlags(env, "register")
	var in identity.RegisterInput
	fs.StringVar(&in.Username, "username", "", "account name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Password, "password", os.Getenv("GOSESSION_PASSWORD"), "password (default $GOSESSION_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, "username", "email", "password"); err != nil {
		return err
	}

	s, err := env.app.manager.Register(ctx, in)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	printSession(env, s)
	return nil
}

func runLogout(ctx context.Context, env *cmdEnv, args []string) error {
	if err := subFlags(env, "logout").Parse(args); err != nil {
		return err
	}
	env.app.manager.Logout(ctx)
	fmt.Fprintln(env.stdout, "logged out")
	return nil
}

func runStatus(_ context.Context, env *cmdEnv, args []string) error {
	if err := subFlags(env, "status").Parse(args); err != nil {
		return err
	}
	m := env.app.manager
	fmt.Fprintf(env.stdout, "state: %s\n", m.State())
	if s, ok := m.Current(); ok {
		printSession(env, s)
	}
	return nil
}

// redacted is the whoami view of a session.
type redacted struct {
	Identity  session.ID   `json:"identity,omitempty"`
	Username  string       `json:"username,omitempty"`
	Email     string       `json:"email,omitempty"`
	Role      session.Role `json:"role,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func runWhoami(_ context.Context, env *cmdEnv, args []string) error {
	if err := subFlags(env, "whoami").Parse(args); err != nil {
		return err
	}
	s, ok := env.app.manager.Current()
	if !ok {
		return goSession.ErrNoSession
	}
	return writeJSON(env, redacted{
		Identity:  s.Identity,
		Username:  s.Username,
		Email:     s.Email,
		Role:      s.Role,
		ExpiresAt: s.Deadline().UTC(),
	})
}

func runRefresh(ctx context.Context, env *cmdEnv, args []string) error {
	if err := subFlags(env, "refresh").Parse(args); err != nil {
		return err
	}
	s, err := env.app.manager.RefreshProfile(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	printSession(env, s)
	return nil
}

func runWatch(ctx context.Context, env *cmdEnv, args []string) error {
	fs := subFlags(env, "watch")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	interval := fs.Duration("interval", time.Second, "state poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("watch: -interval must be > 0")
	}

	m := env.app.manager
	logger := env.app.logger

	if *metricsAddr != "" {
		ln, err := net.Listen("tcp", *metricsAddr)
		if err != nil {
			return fmt.Errorf("watch: listen %s: %w", *metricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promexport.NewPrometheusExporter(m).Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(env.stdout, "metrics on http://%s/metrics\n", ln.Addr())
	}

	if _, ok := m.Current(); !ok {
		return goSession.ErrNoSession
	}
	stopFollow, err := followStore(ctx, env.app)
	if err != nil {
		return fmt.Errorf("watch: follow store: %w", err)
	}
	defer stopFollow()
	fmt.Fprintln(env.stdout, "watching session")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.State() != goSession.StateAuthenticated {
				fmt.Fprintln(env.stdout, "session ended")
				return nil
			}
		}
	}
}

// promptPassword reads a password without echo when stdin is a terminal.
// Otherwise it returns "" and the caller reports the missing flag.
func promptPassword(env *cmdEnv) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(env.stderr, "password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(env.stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func printSession(env *cmdEnv, s session.Session) {
	name := s.Username
	if name == "" {
		name = s.Identity.String()
	}
	role := string(s.Role)
	if role == "" {
		role = "unknown"
	}
	fmt.Fprintf(env.stdout, "user: %s (%s)\n", name, role)
	fmt.Fprintf(env.stdout, "expires: %s\n", s.Deadline().UTC().Format(time.RFC3339))
}

func writeJSON(env *cmdEnv, v any) error {
	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
