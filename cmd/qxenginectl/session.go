package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cubrid/qxengine/internal/xexternal"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "create, inspect, and destroy sessions on the running core",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "allocate a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.Sessions.Create(rootCtx)
		if err != nil {
			return err
		}
		return printSessionID(id)
	},
}

var sessionCheckCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "bump a session's activity time and print its state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		st, err := app.Sessions.Check(id)
		if err != nil {
			return err
		}
		defer app.Sessions.Release(id)

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"id":          st.ID,
				"ref_count":   st.RefCount,
				"active_time": st.ActiveTime,
				"auto_commit": st.AutoCommit,
			})
		}
		fmt.Printf("session %d: ref_count=%d active_time=%s auto_commit=%v\n",
			st.ID, st.RefCount, st.ActiveTime, st.AutoCommit)
		return nil
	},
}

var sessionDestroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "tear down a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		return app.Sessions.Destroy(id)
	},
}

var sessionDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "dump every live session's state to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Sessions.DumpText(os.Stdout, cliValueDescriptor{})
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd, sessionCheckCmd, sessionDestroyCmd, sessionDumpCmd)
}

func parseSessionID(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("qxenginectl: invalid session id %q: %w", s, err)
	}
	return uint32(n), nil
}

func printSessionID(id uint32) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]any{"id": id})
	}
	fmt.Println(id)
	return nil
}

var _ xexternal.ValueDescriptor = cliValueDescriptor{}
