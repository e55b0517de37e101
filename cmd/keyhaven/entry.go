package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// Entry command flags
var (
	entryService string
	entryLogin   string
	entryNote    string
	entryShow    bool
)

// entryCmd is the parent command for credential entries.
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Credential entry operations",
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryUpdateCmd)
	entryCmd.AddCommand(entryDeleteCmd)
	entryCmd.AddCommand(entryListCmd)

	for _, c := range []*cobra.Command{entryAddCmd, entryUpdateCmd} {
		c.Flags().StringVar(&entryService, "service", "", "Service name")
		c.Flags().StringVar(&entryLogin, "login", "", "Login or email for the service")
		c.Flags().StringVar(&entryNote, "note", "", "Optional note")
		_ = c.MarkFlagRequired("service")
	}

	entryListCmd.Flags().BoolVar(&entryShow, "show-passwords", false, "Print passwords instead of masking them")
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a credential entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		entryPassword, err := readPassword("Enter password for the entry: ")
		if err != nil {
			return err
		}

		// A duress session pretends the write worked; a row sealed under
		// the duress key would poison the real vault.
		if sess.IsDuress {
			fmt.Printf("Entry added for '%s'\n", entryService)
			return nil
		}

		if _, err := svc.AddEntry(sess.UserID, sess.Key, entryService, entryLogin, entryPassword, entryNote); err != nil {
			return err
		}

		fmt.Printf("Entry added for '%s'\n", entryService)
		return nil
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a credential entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id: %s", args[0])
		}

		sess, err := authenticate()
		if err != nil {
			return err
		}

		entryPassword, err := readPassword("Enter password for the entry: ")
		if err != nil {
			return err
		}

		if sess.IsDuress {
			fmt.Printf("Entry %d updated\n", id)
			return nil
		}

		if err := svc.UpdateEntry(sess.UserID, id, sess.Key, entryService, entryLogin, entryPassword, entryNote); err != nil {
			return err
		}

		fmt.Printf("Entry %d updated\n", id)
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a credential entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id: %s", args[0])
		}

		sess, err := authenticate()
		if err != nil {
			return err
		}

		if sess.IsDuress {
			fmt.Printf("Entry %d deleted\n", id)
			return nil
		}

		if err := svc.DeleteEntry(sess.UserID, id); err != nil {
			return err
		}

		fmt.Printf("Entry %d deleted\n", id)
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credential entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		entries, err := svc.Entries(sess.UserID, sess.Key)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries")
			return nil
		}

		for _, e := range entries {
			password := "********"
			if entryShow {
				password = e.Password
			}
			line := fmt.Sprintf("%d\t%s\t%s\t%s", e.ID, e.Service, e.Login, password)
			if e.Note != "" {
				line += "\t" + e.Note
			}
			fmt.Println(line)
		}
		return nil
	},
}
