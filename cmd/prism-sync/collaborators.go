package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func collaboratorCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collaborator",
		Aliases: []string{"collab"},
		Short:   "Find, add or remove project collaborators",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "find [email]",
		Short: "Look a user up by email",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			a.sync.ToggleSearch()
			if err := a.sync.FindCollaborator(ctx, args[0]); err != nil {
				return a.report(err)
			}
			return a.print(a.sync.Store().Read().Candidate)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add [project-id] [email]",
		Short: "Add a collaborator to a project",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			if err := a.sync.FindCollaborator(ctx, args[1]); err != nil {
				return a.report(err)
			}
			return a.report(a.sync.AddCollaborator(ctx, args[1]))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm [project-id] [collaborator-id]",
		Short: "Remove a collaborator from a project",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			for _, c := range a.sync.Store().Read().Project.Collaborators {
				if c.ID == args[1] {
					a.sync.ToggleCollaboratorDelete(c)
					return a.report(a.sync.RemoveCollaborator(ctx))
				}
			}
			return fmt.Errorf("collaborator %s not found in project", args[1])
		}),
	})
	return cmd
}
