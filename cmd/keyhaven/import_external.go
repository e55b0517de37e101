package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/importer"
	"github.com/keyhaven/keyhaven/pkg/vault"
)

// External import flags
var (
	importExtFormat string
	importExtMerge  bool
)

func init() {
	rootCmd.AddCommand(importExternalCmd)

	importExternalCmd.Flags().StringVar(&importExtFormat, "format", "csv", "Export format: csv, bitwarden")
	importExternalCmd.Flags().BoolVar(&importExtMerge, "merge", false, "Keep existing entries, skipping duplicate service/login pairs (default replaces the vault)")
}

var importExternalCmd = &cobra.Command{
	Use:   "import-external [file]",
	Short: "Import entries from another password manager's export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser, err := importer.ForSource(importExtFormat)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read export: %w", err)
		}

		sess, err := authenticate()
		if err != nil {
			return err
		}

		result, err := parser.Parse(data)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if len(result.Credentials) == 0 {
			fmt.Println("Nothing to import")
			return nil
		}

		entries := make([]vault.PlainEntry, 0, len(result.Credentials))
		for _, c := range result.Credentials {
			entries = append(entries, vault.PlainEntry{
				Service:  c.Service,
				Login:    c.Login,
				Password: c.Password,
				Note:     c.Note,
			})
		}

		// A duress session pretends the import worked; writing rows sealed
		// under the duress key would corrupt the real vault.
		if sess.IsDuress {
			fmt.Printf("Imported %d entries\n", len(entries))
			return nil
		}

		key, err := base64.StdEncoding.DecodeString(sess.Key)
		if err != nil {
			return vault.ErrInvalidKey
		}

		n, err := svc.ImportPlainEntries(sess.UserID, key, entries, importExtMerge)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d entries\n", n)
		return nil
	},
}
