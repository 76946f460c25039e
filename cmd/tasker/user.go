package main

import (
	"errors"
	"fmt"

	"github.com/chepyr/task-scheduler/internal/app"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := buildApp(cmd.Context(), current.cfg, current.log)
			if err != nil {
				return err
			}
			defer st.Close()

			res := a.Register(cmd.Context(), args[0], password)
			return report(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and print a session token",
		Long: `Log in and print a session token valid for 24 hours.

Pass it to the task commands with --token or export it as TASKER_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, st, err := buildApp(cmd.Context(), current.cfg, current.log)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, res := a.Login(cmd.Context(), args[0], password)
			if !res.OK {
				return errors.New(res.Message)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), res.Message)
			fmt.Fprintln(cmd.OutOrStdout(), sess.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

// report prints a successful Result's message or turns a failed one into
// the command error.
func report(cmd *cobra.Command, res app.Result) error {
	if !res.OK {
		return errors.New(res.Message)
	}
	if res.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	}
	return nil
}
