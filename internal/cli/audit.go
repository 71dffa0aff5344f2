package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umbrellacorp/usiop/internal/audit"
)

var (
	auditDB       string
	auditEmployee string
	auditSession  string
	auditOutcome  string
	auditLimit    int
	auditFormat   string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditDB, "db", "", "Path to audit sqlite store (required)")
	auditCmd.Flags().StringVar(&auditEmployee, "employee", "", "Filter by employee ID")
	auditCmd.Flags().StringVar(&auditSession, "session", "", "Filter by session ID")
	auditCmd.Flags().StringVar(&auditOutcome, "outcome", "", "Filter by outcome (allowed|denied_omega7|denied_facility|denied_clearance)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 0, "Maximum entries to print (0 = all)")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
	auditCmd.MarkFlagRequired("db")

	auditCmd.AddCommand(auditVerifyCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	Long: "Lists audit entries matching the given filters, ordered by\n" +
		"timestamp ascending. Use 'audit verify' to validate the JSONL\n" +
		"hash chain.",
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	store, err := audit.OpenStore(auditDB)
	if err != nil {
		return err
	}
	defer store.Close()

	f := audit.Filter{
		EmployeeID: auditEmployee,
		SessionID:  auditSession,
		Outcome:    auditOutcome,
		Limit:      auditLimit,
	}

	enc := json.NewEncoder(os.Stdout)
	count := 0
	for e, err := range store.Query(f) {
		if err != nil {
			return err
		}
		count++
		switch auditFormat {
		case "json":
			if err := enc.Encode(e); err != nil {
				return err
			}
		default:
			fmt.Printf("%s  %-16s  SCL-%d  %-24s  %q\n",
				e.Timestamp, e.Outcome, e.Identity.Clearance, e.Identity.EmployeeID, e.Query)
		}
	}

	if auditFormat != "json" {
		fmt.Printf("%d entries\n", count)
	}
	return nil
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [audit.jsonl]",
	Short: "Validate the audit log hash chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := audit.Verify(args[0])
		if !result.Valid {
			fmt.Fprintf(os.Stderr, "INVALID at line %d: %s\n", result.ErrorLine, result.Error)
			os.Exit(1)
		}
		fmt.Printf("valid: %d entries, chain intact\n", result.Lines)
		return nil
	},
}
