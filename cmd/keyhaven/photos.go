package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var photosSaveDir string

// photosCmd is the parent command for failed-login photo operations.
var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Failed-login photo operations",
}

func init() {
	rootCmd.AddCommand(photosCmd)
	photosCmd.AddCommand(photosListCmd)
	photosCmd.AddCommand(photosDeleteCmd)
	photosCmd.AddCommand(photosSettingCmd)

	photosListCmd.Flags().StringVar(&photosSaveDir, "save-dir", "", "Write decrypted captures into this directory")
}

var photosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captures taken after failed logins",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		photos, err := svc.FailedLoginPhotos(sess.UserID)
		if err != nil {
			return err
		}
		if len(photos) == 0 {
			fmt.Println("No captures")
			return nil
		}

		for _, p := range photos {
			fmt.Printf("%d %s attempt:%s\n", p.ID, p.Timestamp.Format(time.RFC3339), p.UsernameAttempt)

			if photosSaveDir != "" {
				data, err := base64.StdEncoding.DecodeString(p.Photo)
				if err != nil {
					return fmt.Errorf("capture %d is corrupted: %w", p.ID, err)
				}
				name := filepath.Join(photosSaveDir, fmt.Sprintf("capture-%d.jpg", p.ID))
				if err := os.WriteFile(name, data, 0600); err != nil {
					return fmt.Errorf("failed to write capture: %w", err)
				}
			}
		}
		return nil
	},
}

var photosDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid capture id: %s", args[0])
		}

		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Printf("Capture %d deleted\n", id)
			return nil
		}

		if err := svc.DeleteFailedLoginPhoto(sess.UserID, id); err != nil {
			return err
		}

		fmt.Printf("Capture %d deleted\n", id)
		return nil
	},
}

var photosSettingCmd = &cobra.Command{
	Use:   "setting [on|off]",
	Short: "Show or change photo capture on failed logins",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			enabled, err := svc.PhotoSetting(sess.UserID)
			if err != nil {
				return err
			}
			if sess.IsDuress {
				enabled = false
			}
			if enabled {
				fmt.Println("Photo capture: on")
			} else {
				fmt.Println("Photo capture: off")
			}
			return nil
		}

		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("invalid setting %q (use 'on' or 'off')", args[0])
		}

		if sess.IsDuress {
			fmt.Println("Setting saved")
			return nil
		}
		if err := svc.UpdatePhotoSetting(sess.UserID, enabled); err != nil {
			return err
		}

		fmt.Println("Setting saved")
		return nil
	},
}
