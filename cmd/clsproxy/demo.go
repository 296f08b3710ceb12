package main

import (
	"context"
	"fmt"
	"io"

	"github.com/conduit-lang/clsproxy/internal/cli/ui"
	"github.com/conduit-lang/clsproxy/internal/demo"
	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/conduit-lang/clsproxy/pkg/proxy"
	"github.com/spf13/cobra"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var (
		noCache bool
		withDB  bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through a wrapped class and report the frames each member saw",
		Long: `Construct a wrapped Account, read and write its accessors, call its methods
and detach a method from the instance. Each step reports whether the member body
ran inside an active namespace frame.

Examples:
  clsproxy demo
  clsproxy demo --no-cache
  clsproxy demo --db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if noCache {
				cfg.Cache = false
			}

			env, err := newEnvironment(cfg, logger, withDB)
			if err != nil {
				return err
			}
			defer env.Close()

			return runDemo(cmd.Context(), cmd.OutOrStdout(), env, opts.noColor)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "resolve descriptors on every access")
	cmd.Flags().BoolVar(&withDB, "db", false, "journal deposits to the configured database")

	return cmd
}

func runDemo(ctx context.Context, w io.Writer, env *environment, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	check := func(ok bool, format string, args ...any) {
		ui.CheckNoColor(w, ok, noColor, format, args...)
	}

	ui.Heading(w, noColor, fmt.Sprintf("Namespace %q (cache: %t, construct: %s)",
		env.cfg.Namespace, env.cfg.Cache, env.account.Config().ConstructPolicy))

	_, active := env.ns.Active(ctx)
	check(!active, "caller has no active frame")

	acct, err := env.account.New(ctx, "acct-1", "alice", 100)
	if err != nil {
		return fmt.Errorf("failed to construct account: %w", err)
	}
	check(acct.InstanceOf(env.classes.Entity), "constructed %s", mustDescribe(ctx, acct))

	balance, err := acct.Get(ctx, demo.KeyBalance)
	if err != nil {
		return err
	}
	check(balance == 100, "balance getter returned %v", balance)

	ok, err := acct.Set(ctx, demo.KeyOwner, "bob")
	if err != nil {
		return err
	}
	owner, err := acct.Get(ctx, demo.KeyOwner)
	if err != nil {
		return err
	}
	check(ok && owner == "bob", "owner setter stored %v", owner)

	if _, err := acct.Set(ctx, demo.KeyOwner, ""); err != nil {
		check(true, "owner setter rejected empty value: %v", err)
	} else {
		check(false, "owner setter accepted empty value")
	}

	deposit := func(ctx context.Context) error {
		v, err := acct.Call(ctx, demo.KeyDeposit, 25)
		if err != nil {
			return err
		}
		check(v == 125, "deposit returned balance %v", v)
		return nil
	}
	if env.tx != nil {
		err = env.tx.WithTransaction(ctx, deposit)
	} else {
		err = deposit(ctx)
	}
	if err != nil {
		return fmt.Errorf("deposit failed: %w", err)
	}
	if env.db != nil {
		n, err := env.countEntries(ctx)
		if err != nil {
			return err
		}
		check(n > 0, "journal holds %d entries", n)
	}

	v, err := acct.Call(ctx, demo.KeyTrace)
	if err != nil {
		return err
	}
	trace := v.(demo.Trace)
	check(trace.Active, "method ran in frame %s", trace.Frame)

	var (
		detached cls.Func
		boundTo  string
	)
	err = env.ns.Run(ctx, func(ctx context.Context) error {
		m, err := acct.Get(ctx, demo.KeyTrace)
		if err != nil {
			return err
		}
		var ok bool
		detached, ok = m.(cls.Func)
		if !ok {
			return fmt.Errorf("trace read as %T", m)
		}
		frame, _ := env.ns.Active(ctx)
		boundTo = frame.ID()
		check(true, "detached trace inside frame %s", boundTo)
		return nil
	})
	if err != nil {
		return err
	}

	v, err = detached(ctx)
	if err != nil {
		return err
	}
	trace = v.(demo.Trace)
	check(trace.Frame == boundTo, "detached call still ran in frame %s", trace.Frame)

	if cache := env.account.Cache(); cache != nil {
		stats := cache.Stats()
		check(true, "descriptor cache: %d hits, %d misses, %d keys", stats.Hits, stats.Misses, stats.Size)
	} else {
		check(true, "descriptor cache disabled")
	}
	return nil
}

func mustDescribe(ctx context.Context, acct *proxy.Instance) string {
	v, err := acct.Call(ctx, demo.KeyDescribe)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprint(v)
}
