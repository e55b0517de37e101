package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/pkg/security"
)

// securityCmd is the parent command for vault hygiene checks.
var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Vault hygiene checks",
}

func init() {
	rootCmd.AddCommand(securityCmd)
	securityCmd.AddCommand(securityReportCmd)
}

// securityReportCmd analyzes the entries the session can see. In a duress
// session that is the decoy list, which keeps the output plausible.
var securityReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report weak and reused passwords",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		entries, err := svc.Entries(sess.UserID, sess.Key)
		if err != nil {
			return err
		}

		creds := make([]security.Credential, 0, len(entries))
		for _, e := range entries {
			creds = append(creds, security.Credential{
				ID:       e.ID,
				Service:  e.Service,
				Password: e.Password,
			})
		}

		report := security.Analyze(creds)

		fmt.Printf("Entries:  %d\n", report.Total)
		fmt.Printf("Score:    %d/100\n", report.Score)
		if len(report.WeakServices) > 0 {
			fmt.Printf("Weak:     %s\n", strings.Join(report.WeakServices, ", "))
		}
		for _, group := range report.ReusedGroups {
			fmt.Printf("Reused:   %s\n", strings.Join(group, ", "))
		}
		if len(report.WeakServices) == 0 && len(report.ReusedGroups) == 0 {
			fmt.Println("No weak or reused passwords")
		}
		return nil
	},
}
