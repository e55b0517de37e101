package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/vault"
)

// Duress settings flags
var (
	duressShowFakes    bool
	duressHideLogs     bool
	duressHidePhotos   bool
	duressHideSecurity bool
	duressHideCard     bool
	duressEnabled      bool
)

// duressCmd is the parent command for duress credential operations.
var duressCmd = &cobra.Command{
	Use:   "duress",
	Short: "Duress credential operations",
	Long: `Manage duress credentials.

A duress credential is an alternative password that opens a convincing
session without unlocking the real vault. Use it when being forced to log
in: the session works, but shows decoy entries and hides sensitive data.`,
}

func init() {
	rootCmd.AddCommand(duressCmd)
	duressCmd.AddCommand(duressAddCmd)
	duressCmd.AddCommand(duressDeleteCmd)
	duressCmd.AddCommand(duressClearCmd)
	duressCmd.AddCommand(duressCountCmd)
	duressCmd.AddCommand(duressSettingsCmd)
	duressSettingsCmd.AddCommand(duressSettingsSetCmd)

	duressSettingsSetCmd.Flags().BoolVar(&duressEnabled, "enabled", true, "Enable duress mode")
	duressSettingsSetCmd.Flags().BoolVar(&duressShowFakes, "show-fake-entries", true, "Serve decoy entries in a duress session")
	duressSettingsSetCmd.Flags().BoolVar(&duressHideLogs, "hide-activity", true, "Hide activity logs in a duress session")
	duressSettingsSetCmd.Flags().BoolVar(&duressHidePhotos, "hide-photos", true, "Hide failed-login photos in a duress session")
	duressSettingsSetCmd.Flags().BoolVar(&duressHideSecurity, "hide-security", true, "Hide security settings in a duress session")
	duressSettingsSetCmd.Flags().BoolVar(&duressHideCard, "hide-card", true, "Hide the duress settings card in a duress session")
}

var duressAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a duress credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		duressPassword, err := readPassword("Enter duress password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm duress password: ")
		if err != nil {
			return err
		}
		if duressPassword != confirm {
			return errors.New("passwords do not match")
		}

		// A duress session pretends the add worked and touches nothing.
		if !sess.IsDuress {
			if _, err := svc.AddDuressCredential(sess.UserID, duressPassword); err != nil {
				return err
			}
		}

		fmt.Println("Duress credential added")
		return nil
	},
}

var duressDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a duress credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid credential id: %s", args[0])
		}

		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Printf("Duress credential %d deleted\n", id)
			return nil
		}

		if err := svc.DeleteDuressCredential(sess.UserID, id); err != nil {
			return err
		}

		fmt.Printf("Duress credential %d deleted\n", id)
		return nil
	},
}

var duressClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all duress credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println("Deleted 0 duress credentials")
			return nil
		}

		n, err := svc.DeleteAllDuressCredentials(sess.UserID)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d duress credentials\n", n)
		return nil
	},
}

var duressCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count duress credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println(0)
			return nil
		}

		n, err := svc.CountDuressCredentials(sess.UserID)
		if err != nil {
			return err
		}

		fmt.Println(n)
		return nil
	},
}

var duressSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show duress settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		settings, err := svc.DuressSettingsFor(sess.UserID)
		if err != nil {
			return err
		}
		if sess.IsDuress && settings.HideDuressCard {
			settings = vault.DefaultDuressSettings()
		}

		fmt.Printf("Enabled:                 %t\n", settings.Enabled)
		fmt.Printf("Show fake entries:       %t\n", settings.ShowFakeEntries)
		fmt.Printf("Hide activity logs:      %t\n", settings.HideActivityLogs)
		fmt.Printf("Hide failed-login photos: %t\n", settings.HideFailedLoginPhotos)
		fmt.Printf("Hide security settings:  %t\n", settings.HideSecuritySettings)
		fmt.Printf("Hide duress card:        %t\n", settings.HideDuressCard)
		return nil
	},
}

var duressSettingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update duress settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println("Settings saved")
			return nil
		}

		settings := vault.DuressSettings{
			Enabled:               duressEnabled,
			ShowFakeEntries:       duressShowFakes,
			HideActivityLogs:      duressHideLogs,
			HideFailedLoginPhotos: duressHidePhotos,
			HideSecuritySettings:  duressHideSecurity,
			HideDuressCard:        duressHideCard,
		}
		if err := svc.SaveDuressSettings(sess.UserID, settings); err != nil {
			return err
		}

		fmt.Println("Settings saved")
		return nil
	},
}
