package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/resource"
	"github.com/MrEthical07/goSession/session"
)

func runPurchases(ctx context.Context, env *cmdEnv, args []string) error {
	if err := env.app.requireAPI(); err != nil {
		return err
	}
	action := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		action, args = args[0], args[1:]
	}
	rc := env.app.resources

	switch action {
	case "list":
		fs := subFlags(env, "purchases list")
		var opts resource.ListOptions
		fs.StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD")
		fs.StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD")
		fs.StringVar(&opts.Category, "category", "", "category filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := rc.List(ctx, opts)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tITEM\tCATEGORY\tAMOUNT")
		for _, p := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", p.ID, p.Date, p.Item, p.Category, p.Amount)
		}
		return tw.Flush()

	case "add", "update":
		fs := subFlags(env, "purchases "+action)
		id := fs.String("id", "", "purchase id (update only)")
		var p resource.Purchase
		fs.StringVar(&p.Item, "item", "", "item name")
		fs.Float64Var(&p.Amount, "amount", 0, "amount, > 0")
		fs.StringVar(&p.Category, "category", "", "category")
		fs.StringVar(&p.Date, "date", "", "day of purchase, YYYY-MM-DD")
		if err := fs.Parse(args); err != nil {
			return err
		}
		var (
			out resource.Purchase
			err error
		)
		if action == "add" {
			out, err = rc.Create(ctx, p)
		} else {
			if err := requireArgs(fs, "id"); err != nil {
				return err
			}
			out, err = rc.Update(ctx, *id, p)
		}
		if err != nil {
			return err
		}
		env.app.dashboard.Invalidate()
		return writeJSON(env, out)

	case "rm":
		fs := subFlags(env, "purchases rm")
		id := fs.String("id", "", "purchase id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireArgs(fs, "id"); err != nil {
			return err
		}
		if err := rc.Delete(ctx, *id); err != nil {
			return err
		}
		env.app.dashboard.Invalidate()
		fmt.Fprintf(env.stdout, "deleted %s\n", *id)
		return nil
	}
	return fmt.Errorf("purchases: unknown action %q (list, add, update, rm)", action)
}

func runUsers(ctx context.Context, env *cmdEnv, args []string) error {
	if err := env.app.requireAPI(); err != nil {
		return err
	}
	action := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		action, args = args[0], args[1:]
	}
	rc := env.app.resources
	current, _ := env.app.manager.Current()

	switch action {
	case "list":
		if err := subFlags(env, "users list").Parse(args); err != nil {
			return err
		}
		users, err := rc.ListUsers(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\t")
		for _, u := range users {
			marker := ""
			if resource.IsCurrentUser(current, u) {
				marker = "(you)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, marker)
		}
		return tw.Flush()

	case "set-role":
		fs := subFlags(env, "users set-role")
		id := fs.String("id", "", "user id")
		role := fs.String("role", "", "user or admin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireArgs(fs, "id", "role"); err != nil {
			return err
		}
		u, err := rc.UpdateUserRole(ctx, *id, session.Role(*role))
		if err != nil {
			return err
		}
		if resource.IsCurrentUser(current, u) {
			if _, err := env.app.manager.RefreshProfile(ctx); err != nil {
				return fmt.Errorf("role updated but profile refresh failed: %w", err)
			}
		}
		env.app.dashboard.Invalidate()
		fmt.Fprintf(env.stdout, "%s is now %s\n", u.Username, u.Role)
		return nil

	case "rm":
		fs := subFlags(env, "users rm")
		id := fs.String("id", "", "user id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireArgs(fs, "id"); err != nil {
			return err
		}
		if current.Identity.String() == *id {
			return errors.New("users rm: refusing to delete the logged-in account")
		}
		if err := rc.DeleteUser(ctx, *id); err != nil {
			return err
		}
		env.app.dashboard.Invalidate()
		fmt.Fprintf(env.stdout, "deleted %s\n", *id)
		return nil
	}
	return fmt.Errorf("users: unknown action %q (list, set-role, rm)", action)
}

func runDashboard(ctx context.Context, env *cmdEnv, args []string) error {
	if err := env.app.requireAPI(); err != nil {
		return err
	}
	fs := subFlags(env, "dashboard")
	days := fs.Int("days", env.app.cfg.Dashboard.DefaultDays, "window length in days")
	view := fs.String("view", "daily", "daily, categories or roles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := env.app.dashboard
	switch *view {
	case "daily":
		report, err := svc.Daily(ctx, *days)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "DATE\tTOTAL\t(source: %s)\n", report.Origin)
		for _, d := range report.Days {
			fmt.Fprintf(tw, "%s\t%s\t\n", d.Date, strconv.FormatFloat(d.Total, 'f', 2, 64))
		}
		fmt.Fprintf(tw, "total\t%.2f\t\n", report.Total)
		return tw.Flush()
	case "categories":
		totals, err := svc.Categories(ctx, resource.ListOptions{})
		if err != nil {
			return err
		}
		return writeJSON(env, totals)
	case "roles":
		counts, err := svc.Roles(ctx)
		if err != nil {
			return err
		}
		return writeJSON(env, counts)
	}
	return fmt.Errorf("dashboard: unknown view %q", *view)
}

func runLint(_ context.Context, env *cmdEnv, args []string) error {
	if err := subFlags(env, "lint").Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(env.opts)
	if err != nil {
		return err
	}
	result := cfg.Lint()
	if len(result) == 0 {
		fmt.Fprintln(env.stdout, "no findings")
		return nil
	}
	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	for _, w := range result {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", w.Severity, w.Code, w.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return result.AsError(goSession.LintHigh)
}
