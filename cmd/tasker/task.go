package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/chepyr/task-scheduler/internal/session"
	"github.com/chepyr/task-scheduler/internal/tasks"
	"github.com/spf13/cobra"
)

const tokenEnv = "TASKER_TOKEN"

func newTaskCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage your tasks",
	}
	cmd.PersistentFlags().StringVar(&token, "token", "", "session token from login (default $"+tokenEnv+")")

	var withSession sessionRunner = func(run sessionFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, st, err := buildApp(cmd.Context(), current.cfg, current.log)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := authenticate(cmd.Context(), a, token)
			if err != nil {
				return err
			}
			return run(cmd, args, a, sess)
		}
	}

	cmd.AddCommand(newTaskAddCmd(withSession))
	cmd.AddCommand(newTaskListCmd(withSession))
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app.App, sess *session.Session) error {
			return report(cmd, a.ToggleTask(cmd.Context(), sess, args[0]))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app.App, sess *session.Session) error {
			return report(cmd, a.DeleteTask(cmd.Context(), sess, args[0]))
		}),
	})
	return cmd
}

// sessionFunc is a task subcommand body that runs with a logged-in session.
type sessionFunc func(cmd *cobra.Command, args []string, a *app.App, sess *session.Session) error

type sessionRunner func(run sessionFunc) func(*cobra.Command, []string) error

func authenticate(ctx context.Context, a *app.App, token string) (*session.Session, error) {
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return nil, errors.New("not logged in: pass --token or set " + tokenEnv)
	}
	sess, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, errors.New(apperr.Message(err))
	}
	return sess, nil
}

func newTaskAddCmd(withSession sessionRunner) *cobra.Command {
	var title, description, due, priority string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app.App, sess *session.Session) error {
			in, err := tasks.ParseNewTask(title, description, due, priority, time.Now())
			if err != nil {
				return errors.New(apperr.Message(err))
			}
			task, res := a.AddTask(cmd.Context(), sess, in)
			if err := report(cmd, res); err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), []models.Task{task}, outputTable)
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&priority, "priority", "High", "High, Medium or Low")
	return cmd
}

func newTaskListCmd(withSession sessionRunner) *cobra.Command {
	var status, sortBy, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, a *app.App, sess *session.Session) error {
			filter, err := tasks.ParseFilter(status)
			if err != nil {
				return errors.New(apperr.Message(err))
			}
			order, err := tasks.ParseSort(sortBy)
			if err != nil {
				return errors.New(apperr.Message(err))
			}
			format, err := parseOutput(output)
			if err != nil {
				return err
			}

			list, res := a.ListTasks(sess, filter, order)
			if !res.OK {
				return errors.New(res.Message)
			}
			if len(list) == 0 && format == outputTable {
				return report(cmd, res)
			}
			return printTasks(cmd.OutOrStdout(), list, format)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "All", "All, Active or Completed")
	cmd.Flags().StringVar(&sortBy, "sort", "Due Date", "Due Date, Priority or Created Date")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "table, json or yaml")
	return cmd
}
