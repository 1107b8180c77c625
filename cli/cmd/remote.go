package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crystian/declincus/config"
)

func newRemoteCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remote",
		GroupID: groupUserFacing,
		Short:   "Manage the remote catalog",
		Long: `The remote catalog maps names to Incus API endpoints. Declarations refer
to remotes by name; the catalog holds the URL, protocol and credentials.`,
	}

	cmd.AddCommand(newRemoteListCommand(opts))
	cmd.AddCommand(newRemoteAddCommand(opts))
	cmd.AddCommand(newRemoteRemoveCommand(opts))
	cmd.AddCommand(newRemoteRenameCommand(opts))
	cmd.AddCommand(newRemoteSetDefaultCommand(opts))

	return cmd
}

func newRemoteListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog remotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := opts.remoteService()

			remotes, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			defaultName := ""
			if def, err := svc.GetDefault(cmd.Context()); err == nil {
				defaultName = def.Name
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tURL\tPROTOCOL\tPROJECT")
			for _, remote := range remotes {
				name := remote.Name
				if name == defaultName {
					name += " (default)"
				}
				protocol := remote.Protocol
				if protocol == "" {
					protocol = config.ProtocolIncus
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", name, remote.URL, protocol, remote.Project)
			}
			return writer.Flush()
		},
	}
}

func newRemoteAddCommand(opts *rootOptions) *cobra.Command {
	var remote config.Remote

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a remote to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote.Name = args[0]
			remote.URL = args[1]
			return opts.remoteService().Create(cmd.Context(), remote)
		},
	}

	cmd.Flags().StringVar(&remote.Protocol, "protocol", "", "API protocol (incus or simplestreams)")
	cmd.Flags().StringVar(&remote.Project, "project", "", "Default project on this remote")
	cmd.Flags().StringVar(&remote.Description, "description", "", "Free-form description")

	return cmd
}

func newRemoteRemoveCommand(opts *rootOptions) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a remote from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, err := confirmDestructive(assumeYes, []string{"remote " + args[0]})
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("remove aborted")
			}
			return opts.remoteService().Delete(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Do not prompt for confirmation")

	return cmd
}

func newRemoteRenameCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a catalog remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteService().Rename(cmd.Context(), args[0], args[1])
		},
	}
}

func newRemoteSetDefaultCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Select the remote used when a declaration names none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteService().SetDefault(cmd.Context(), args[0])
		},
	}
}
