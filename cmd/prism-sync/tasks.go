package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"prism-sync/domain"
	"prism-sync/replica"
)

func taskCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit, complete or delete tasks of a project",
	}
	cmd.AddCommand(taskAddCmd(opts, out))
	cmd.AddCommand(taskEditCmd(opts, out))
	cmd.AddCommand(taskCompleteCmd(opts, out))
	cmd.AddCommand(taskDeleteCmd(opts, out))
	return cmd
}

func taskDraftFlags(cmd *cobra.Command, draft *domain.TaskDraft) {
	cmd.Flags().StringVarP(&draft.Name, "name", "n", "", "task name")
	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "task description")
}

// focus loads the project so local views and the broadcast room match it.
func focus(ctx context.Context, a *app, projectID string) error {
	if err := a.sync.FocusProject(ctx, projectID); err != nil {
		return a.report(err)
	}
	return nil
}

func findTask(a *app, id string) (domain.Task, error) {
	for _, t := range a.sync.Store().Read().Project.Tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %s not found in project", id)
}

func taskAddCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var draft domain.TaskDraft
	cmd := &cobra.Command{
		Use:   "add [project-id]",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			draft.Project = domain.TaskRef(args[0])
			return a.report(a.sync.SubmitTask(ctx, replica.CreateTask{Draft: draft}))
		}),
	}
	taskDraftFlags(cmd, &draft)
	return cmd
}

func taskEditCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var draft domain.TaskDraft
	cmd := &cobra.Command{
		Use:   "edit [project-id] [task-id]",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			current, err := findTask(a, args[1])
			if err != nil {
				return err
			}
			if draft.Name == "" {
				draft.Name = current.Name
			}
			if draft.Description == "" {
				draft.Description = current.Description
			}
			draft.Project = domain.TaskRef(args[0])
			a.sync.OpenEditTask(current)
			return a.report(a.sync.SubmitTask(ctx, replica.EditTask{ID: current.ID, Draft: draft}))
		}),
	}
	taskDraftFlags(cmd, &draft)
	return cmd
}

func taskCompleteCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [project-id] [task-id]",
		Short: "Toggle the completion state of a task",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			return a.report(a.sync.CompleteTask(ctx, args[1]))
		}),
	}
}

func taskDeleteCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [project-id] [task-id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, out, func(ctx context.Context, a *app, args []string) error {
			if err := focus(ctx, a, args[0]); err != nil {
				return err
			}
			task, err := findTask(a, args[1])
			if err != nil {
				return err
			}
			a.sync.OpenDeleteTask(task)
			return a.report(a.sync.DeleteTask(ctx))
		}),
	}
}
