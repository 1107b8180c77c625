package cmd

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/crystian/declincus/config"
)

const (
	groupUserFacing = "user"
	groupUtility    = "utility"
)

var rootCmd = NewRootCommand()

func Execute() error {
	return rootCmd.Execute()
}

type rootOptions struct {
	remotesFile string
	remote      string
	project     string
	verbosity   int
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "declincus",
		Short: "Reconcile declared Incus objects against the hypervisor",
		Long: `declincus converges Incus profiles, projects, remotes, storage pools and
storage volumes toward YAML declarations.

Every run fetches the current server state, computes the minimal change and
applies it; declarations that already hold report no change. Config keys the
declarations never mention are left alone, so declincus coexists with manual
edits and other tooling.`,
		Example: `  # Show what would change without touching the server
  declincus diff specs/

  # Apply every declaration under a directory
  declincus apply specs/

  # Apply declarations tracked in a git repository
  declincus apply --git-url ssh://git@git.example.com/infra/specs.git --git-dir ~/.cache/declincus/specs

  # Manage the remote catalog
  declincus remote add prod https://incus.example.com:8443
  declincus remote list`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	cmd.PersistentFlags().StringVar(&opts.remotesFile, "remotes-file", "",
		"Path to the remote catalog (defaults to "+config.DefaultRemoteCatalogPath+")")
	cmd.PersistentFlags().StringVar(&opts.remote, "remote", "",
		"Remote for declarations that do not name one")
	cmd.PersistentFlags().StringVar(&opts.project, "project", "",
		"Project for declarations that do not name one")
	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v",
		"Increase log verbosity (repeatable)")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})

	cmd.AddGroup(&cobra.Group{ID: groupUserFacing, Title: "Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtility, Title: "Utility Commands:"})

	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newDiffCommand(opts))
	cmd.AddCommand(newRemoteCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) logr.Logger {
	out := cmd.ErrOrStderr()
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(out, prefix, args)
			return
		}
		fmt.Fprintln(out, args)
	}, funcr.Options{Verbosity: o.verbosity})
}
