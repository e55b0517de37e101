package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/security"
)

// userCmd is the parent command for account operations.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Account operations",
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userVerifyCmd)
}

var userCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		password1, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		password2, err := readPassword("Confirm master password: ")
		if err != nil {
			return err
		}
		if password1 != password2 {
			return errors.New("passwords do not match")
		}

		strength, warnings, err := security.ValidateMasterPassword(password1)
		if err != nil {
			return err
		}
		fmt.Printf("Password strength: %s\n", strength)
		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}

		if _, err := svc.CreateUser(username, password1); err != nil {
			return err
		}

		fmt.Printf("Account '%s' created\n", username)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := svc.ListUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No accounts")
			return nil
		}
		for _, u := range users {
			fmt.Println(u)
		}
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [username]",
	Short: "Delete an account and all its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		fmt.Printf("This permanently deletes account '%s' and everything it owns.\n", username)
		fmt.Print("Are you sure? [y/N]: ")
		response, err := readLine()
		if err != nil {
			return err
		}
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}

		if err := svc.DeleteUser(username, password); err != nil {
			return err
		}

		fmt.Printf("Account '%s' deleted\n", username)
		return nil
	},
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify [username]",
	Short: "Check a master password without opening a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		ok, err := svc.VerifyUserPassword(username, password)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("password does not match")
		}

		fmt.Println("Password OK")
		return nil
	},
}
