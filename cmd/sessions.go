package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramizpolic/agenthost/internal/config"
	"github.com/ramizpolic/agenthost/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		summaries, err := store.List()
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%s  %-10s  %3d messages  updated %s\n",
				s.SessionID, s.Provider, s.MessageCount,
				s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the full message history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		sess, err := store.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Session %s (%s), created %s\n\n",
			sess.SessionID, sess.Provider,
			sess.CreatedAt.Format("2006-01-02 15:04:05"))
		printHistory(sess)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
}

func openStore() (*session.Store, error) {
	dir := sessionDirFlag
	if dir == "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		dir = cfg.SessionDir
	}
	return session.NewStore(dir)
}
