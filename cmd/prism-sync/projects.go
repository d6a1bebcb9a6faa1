package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"prism-sync/domain"
	"prism-sync/replica"
)

func projectsCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		Args:  cobra.NoArgs,
		RunE: run(opts, out, func(ctx context.Context, a *app, _ []string) error {
			if err := a.sync.FetchProjects(ctx); err != nil {
				return err
			}
			return a.print(a.sync.Store().Read().Projects)
		}),
	}
}

func projectCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show, create, edit or delete a project",
	}
	cmd.AddCommand(projectShowCmd(opts, out))
	cmd.AddCommand(projectCreateCmd(opts, out))
	cmd.AddCommand(projectEditCmd(opts, out))
	cmd.AddCommand(projectDeleteCmd(opts, out))
	return cmd
}

func projectShowCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show [project-id]",
		Short: "Show a project with its tasks and collaborators",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := a.sync.FetchProject(ctx, args[0]); err != nil {
				return a.report(err)
			}
			return a.print(a.sync.Store().Read().Project)
		}),
	}
}

func projectDraftFlags(cmd *cobra.Command, draft *domain.ProjectDraft) {
	cmd.Flags().StringVarP(&draft.Name, "name", "n", "", "project name")
	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "project description")
	cmd.Flags().StringVarP(&draft.Client, "client", "c", "", "client the project is for")
}

func projectCreateCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var draft domain.ProjectDraft
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: run(opts, out, func(ctx context.Context, a *app, _ []string) error {
			return a.report(a.sync.SubmitProject(ctx, replica.CreateProject{Draft: draft}))
		}),
	}
	projectDraftFlags(cmd, &draft)
	return cmd
}

func projectEditCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var draft domain.ProjectDraft
	cmd := &cobra.Command{
		Use:   "edit [project-id]",
		Short: "Edit a project",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			return a.report(a.sync.SubmitProject(ctx, replica.EditProject{ID: args[0], Draft: draft}))
		}),
	}
	projectDraftFlags(cmd, &draft)
	return cmd
}

func projectDeleteCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [project-id]",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			return a.report(a.sync.DeleteProject(ctx, args[0]))
		}),
	}
}
