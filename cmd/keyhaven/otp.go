package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// otpCmd is the parent command for one-time code operations.
var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "One-time code operations",
}

// recoveryCmd is the parent command for OTP recovery operations.
var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "OTP recovery operations",
	Long: `Manage OTP recovery.

Setup seals the vault encryption key under a key derived from the OTP
secret. With recovery configured, a valid authenticator code can open a
full session when the master password is unavailable.`,
}

func init() {
	rootCmd.AddCommand(otpCmd)
	rootCmd.AddCommand(recoveryCmd)

	otpCmd.AddCommand(otpGenerateCmd)
	otpCmd.AddCommand(otpResetCmd)
	otpCmd.AddCommand(otpStatusCmd)
	otpCmd.AddCommand(otpVerifyCmd)

	recoveryCmd.AddCommand(recoverySetupCmd)
	recoveryCmd.AddCommand(recoveryStatusCmd)
}

var otpGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate (or show) the OTP secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		setup, err := svc.GenerateOTPSecret(userName)
		if err != nil {
			return err
		}

		fmt.Printf("Secret: %s\n", setup.Secret)
		fmt.Printf("URL:    %s\n", setup.URL)
		fmt.Println("Add the URL to an authenticator app, then run 'keyhaven recovery setup'.")
		return nil
	},
}

var otpResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the OTP secret and drop recovery",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		// Resetting invalidates the sealed recovery key, so gate it on the
		// master password.
		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		ok, err := svc.VerifyUserPassword(userName, password)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("password does not match")
		}

		setup, err := svc.ResetOTPSecret(userName)
		if err != nil {
			return err
		}

		fmt.Printf("Secret: %s\n", setup.Secret)
		fmt.Printf("URL:    %s\n", setup.URL)
		fmt.Println("Recovery was invalidated; run 'keyhaven recovery setup' again.")
		return nil
	},
}

var otpStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an OTP secret is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		has, err := svc.HasOTPSecret(userName)
		if err != nil {
			return err
		}
		if has {
			fmt.Println("OTP secret: configured")
		} else {
			fmt.Println("OTP secret: not configured")
		}
		return nil
	},
}

var otpVerifyCmd = &cobra.Command{
	Use:   "verify [code]",
	Short: "Check a one-time code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		ok, err := svc.VerifyOTP(userName, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("code does not verify")
		}

		fmt.Println("Code OK")
		return nil
	},
}

var recoverySetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Seal the vault key for OTP recovery",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		if err := svc.SetupOTPRecovery(userName, password); err != nil {
			return err
		}

		fmt.Println("Recovery configured")
		return nil
	},
}

var recoveryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether OTP recovery is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		has, err := svc.HasOTPRecovery(userName)
		if err != nil {
			return err
		}
		if has {
			fmt.Println("Recovery: configured")
		} else {
			fmt.Println("Recovery: not configured")
		}
		return nil
	},
}
