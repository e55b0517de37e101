package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/vault"
)

var loginPhotoPath string

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(loginOTPCmd)

	loginCmd.Flags().StringVar(&loginPhotoPath, "photo", "", "Capture file to store if the login fails")
}

// loginCmd opens a session and prints the session key for use with entry
// commands. A duress password succeeds the same way.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			if errors.Is(err, vault.ErrInvalidPassword) && loginPhotoPath != "" {
				saveLoginPhoto()
			}
			return err
		}

		fmt.Printf("Logged in as %s\n", sess.Username)
		fmt.Printf("Session key: %s\n", sess.Key)
		return nil
	},
}

// saveLoginPhoto stores a capture after a failed attempt. Errors are logged
// only; the login failure is the answer the caller gets.
func saveLoginPhoto() {
	data, err := os.ReadFile(loginPhotoPath)
	if err != nil {
		logger.Warn("failed to read capture file")
		return
	}
	photo := base64.StdEncoding.EncodeToString(data)
	if err := svc.SaveFailedLoginPhoto(userName, photo, userName); err != nil {
		logger.Warn("failed to store capture")
	}
}

var loginOTPCmd = &cobra.Command{
	Use:   "login-otp [code]",
	Short: "Open a session with a one-time code instead of the password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		sess, err := svc.LoginWithOTP(userName, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (recovery)\n", sess.Username)
		fmt.Printf("Session key: %s\n", sess.Key)
		return nil
	},
}
