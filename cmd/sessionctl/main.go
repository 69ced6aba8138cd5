// Command sessionctl drives a goSession Manager from the shell: it logs in,
// persists the session to the configured store, and calls the Resource API
// and dashboard on its behalf.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
)

type command struct {
	name    string
	summary string
	// needsApp is false for commands that never touch the session.
	needsApp bool
	run      func(ctx context.Context, env *cmdEnv, args []string) error
}

var commands = []command{
	{name: "login", summary: "log in with a password or an existing token", needsApp: true, run: runLogin},
	{name: "register", summary: "create an account and log in", needsApp: true, run: runRegister},
	{name: "logout", summary: "end the session and clear the store", needsApp: true, run: runLogout},
	{name: "status", summary: "print the session state and expiry", needsApp: true, run: runStatus},
	{name: "whoami", summary: "print the session as JSON (token redacted)", needsApp: true, run: runWhoami},
	{name: "refresh", summary: "re-read the profile from the Identity Service", needsApp: true, run: runRefresh},
	{name: "watch", summary: "hold the session until it ends, optionally serving /metrics", needsApp: true, run: runWatch},
	{name: "purchases", summary: "list, add, update or remove purchases", needsApp: true, run: runPurchases},
	{name: "users", summary: "list users or change roles (admin)", needsApp: true, run: runUsers},
	{name: "dashboard", summary: "print daily, category or role aggregates", needsApp: true, run: runDashboard},
	{name: "lint", summary: "report risky configuration", run: runLint},
	{name: "fakeapi", summary: "serve an in-memory API for local testing", run: runFakeAPI},
}

// cmdEnv is what a command gets to work with.
type cmdEnv struct {
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer
	app    *app
}

type globalOptions struct {
	configPath string
	dotenv     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "sessionctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sessionctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts globalOptions
	fs.StringVar(&opts.configPath, "config", os.Getenv("GOSESSION_CONFIG"), "TOML config file")
	fs.StringVar(&opts.dotenv, "env", "", "dotenv file (default ./.env when present)")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}

	env := &cmdEnv{opts: opts, stdout: stdout, stderr: stderr}
	if cmd.needsApp {
		a, err := newApp(ctx, opts, stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		env.app = a
	}
	return cmd.run(ctx, env, rest[1:])
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: sessionctl [-config file] [-env file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	sorted := append([]command(nil), commands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	for _, c := range sorted {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "global flags:")
	fs.PrintDefaults()
}

// subFlags returns a FlagSet for one command that reports errors to stderr.
func subFlags(env *cmdEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("sessionctl "+name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func requireArgs(fs *flag.FlagSet, names ...string) error {
	var missing []string
	for _, n := range names {
		f := fs.Lookup(n)
		if f == nil || strings.TrimSpace(f.Value.String()) == "" {
			missing = append(missing, "-"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", fs.Name(), strings.Join(missing, ", "))
	}
	return nil
}
