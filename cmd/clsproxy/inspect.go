package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/conduit-lang/clsproxy/internal/cli/ui"
	"github.com/conduit-lang/clsproxy/pkg/object"
	"github.com/conduit-lang/clsproxy/pkg/proxy"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var extra []string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how each member of the demo Account resolves",
		Long: `List every key an Account instance can see, the kind of descriptor it
resolves to and the object that defines it. Extra keys may be given with --key
to see how unknown members resolve.

Examples:
  clsproxy inspect
  clsproxy inspect --key missing --key toString`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			env, err := newEnvironment(cfg, logger, false)
			if err != nil {
				return err
			}
			defer env.Close()

			return runInspect(cmd.Context(), cmd.OutOrStdout(), env, extra, opts.noColor)
		},
	}

	cmd.Flags().StringArrayVar(&extra, "key", nil, "additional key to resolve (repeatable)")

	return cmd
}

func runInspect(ctx context.Context, w io.Writer, env *environment, extra []string, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	acct, err := env.account.New(ctx, "acct-1", "alice", 100)
	if err != nil {
		return fmt.Errorf("failed to construct account: %w", err)
	}

	owners := map[*object.Object]string{acct.Target(): "instance"}
	var keys []object.Key
	seen := map[object.Key]bool{}
	add := func(k object.Key) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range acct.Target().OwnKeys() {
		add(k)
	}
	for _, c := range acct.Target().Class().Lineage() {
		owners[c.Prototype()] = c.Name() + ".prototype"
		for _, k := range c.Prototype().OwnKeys() {
			add(k)
		}
	}
	for _, name := range extra {
		add(object.StringKey(name))
	}

	table := ui.NewTable(w, []string{"KEY", "KIND", "DEFINED ON"}, noColor)
	for _, k := range keys {
		d, ok, err := acct.Descriptor(k)
		if err != nil {
			return err
		}
		if !ok {
			table.AddRow(k.String(), "absent", "-")
			continue
		}
		table.AddRow(k.String(), kindOf(d), definedOn(acct, k, owners))
	}
	table.Render()

	fmt.Fprintln(w)
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Namespace", fmt.Sprint(env.account.Namespace().Name()))
	kv.AddRow("Construct policy", env.account.Config().ConstructPolicy.String())
	if cache := env.account.Cache(); cache != nil {
		stats := cache.Stats()
		kv.AddRow("Cached keys", strconv.Itoa(stats.Size))
		kv.AddRow("Cache hits", strconv.FormatUint(stats.Hits, 10))
		kv.AddRow("Cache misses", strconv.FormatUint(stats.Misses, 10))
	} else {
		kv.AddRow("Cache", "disabled")
	}
	kv.Render()
	return nil
}

func kindOf(d *object.Descriptor) string {
	switch {
	case d.IsAccessor() && d.Get != nil && d.Set != nil:
		return "accessor"
	case d.IsAccessor() && d.Get != nil:
		return "getter"
	case d.IsAccessor():
		return "setter"
	case d.IsCallable():
		return "method"
	default:
		return "data"
	}
}

// definedOn reports the nearest object in the chain that owns key
func definedOn(acct *proxy.Instance, key object.Key, owners map[*object.Object]string) string {
	for o := acct.Target(); o != nil; o = o.Prototype() {
		if o.HasOwn(key) {
			if name, ok := owners[o]; ok {
				return name
			}
			return "?"
		}
	}
	return "-"
}
