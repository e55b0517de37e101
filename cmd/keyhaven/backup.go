package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/backup"
)

// Backup command flags
var (
	exportOutput string
	importMerge  bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	importCmd.Flags().BoolVar(&importMerge, "merge", false, "Keep existing entries, skipping duplicate service/login pairs (default replaces the vault)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the vault as an encrypted backup bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		bundle, err := backup.Export(svc, sess.Username, sess.Key)
		if err != nil {
			return err
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, []byte(bundle), 0600); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			fmt.Printf("Backup written to %s\n", exportOutput)
			return nil
		}

		fmt.Println(bundle)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [bundle-file]",
	Short: "Import entries from an encrypted backup bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}

		currentPassword, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		backupPassword, err := readPassword("Enter backup password: ")
		if err != nil {
			return err
		}

		n, err := backup.Import(svc, userName, currentPassword, backupPassword, string(data), importMerge)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d entries\n", n)
		return nil
	},
}
