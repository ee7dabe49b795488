package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/config"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		// Settings may be invalid; config must still work to fix them.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if c.resolver == nil {
				c.resolver = config.NewNoteflowResolver()
			}
			return nil
		},
	}

	var global bool
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting to .noteflow.yaml, or the global file with --global",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := config.WriterFor(c.resolver)
			var err error
			if global {
				err = w.SaveGlobal(args[0], args[1])
			} else {
				err = w.SaveLocal(args[0], args[1])
			}
			if err != nil {
				return nferrors.ForCLI(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], config.Mask(args[0], args[1]))
			return nil
		},
	}
	set.Flags().BoolVar(&global, "global", false, "Write ~/.config/noteflow/config.yaml")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a resolved setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := c.resolver.Resolve()
			v, src := resolved.GetWithSource(args[0])
			if src == "" {
				return nferrors.ForCLI(nferrors.Validation("key", "unknown config key %q", args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Mask(args[0], v))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every setting with its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved := c.resolver.Resolve()
			keys := resolved.Keys()
			sort.Strings(keys)
			out := cmd.OutOrStdout()
			for _, k := range keys {
				v, src := resolved.GetWithSource(k)
				fmt.Fprintf(out, "%-22s %-28s %s\n", k, config.Mask(k, v), labelStyle.Render("("+string(src)+")"))
			}
			if _, warnings, err := config.LoadSettings(resolved); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n", warnStyle.Render(err.Error()))
			} else {
				for _, w := range warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(set, get, list)
	return cmd
}
