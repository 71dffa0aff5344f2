package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umbrellacorp/usiop/internal/clearance"
	"github.com/umbrellacorp/usiop/internal/denylist"
	"github.com/umbrellacorp/usiop/internal/model"
	"github.com/umbrellacorp/usiop/internal/policy"
)

var (
	checkLevel    int
	checkLocation string
	checkFacility bool
	checkTable    string
	checkDenylist string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&checkLevel, "level", 1, "Clearance level of the querying identity (1-5)")
	checkCmd.Flags().StringVar(&checkLocation, "location", "Umbrella Europe", "Assigned location")
	checkCmd.Flags().BoolVar(&checkFacility, "facility-access", false, "Identity holds facility access")
	checkCmd.Flags().StringVar(&checkTable, "table", "", "Path to clearance table YAML")
	checkCmd.Flags().StringVar(&checkDenylist, "denylist", "", "Path to denylist YAML")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check [query]",
	Short: "Evaluate one query against policy",
	Long: "Evaluates a single query for a synthetic identity and prints the\n" +
		"verdict with the retrieval parameters an allowed query would use.\n" +
		"The audit entry is recorded without sinks, so nothing is persisted;\n" +
		"use this to test table and denylist edits.",
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	table, err := clearance.Load(checkTable)
	if err != nil {
		return err
	}
	dl, err := denylist.Load(checkDenylist)
	if err != nil {
		return err
	}

	engine := policy.NewEngine(table, dl)
	id := model.Identity{
		EmployeeID:     "check",
		Name:           "Check",
		ClearanceLevel: checkLevel,
		Location:       checkLocation,
		FacilityAccess: checkFacility,
	}

	verdict := engine.Evaluate(id, model.NewQuery(id, args[0], ""))

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("outcome: %s\n", verdict.Outcome)
		fmt.Printf("reason:  %s\n", verdict.Reason)
		if verdict.Retrieval != nil {
			fmt.Printf("retrieval: k=%d threshold=%.2f max_clearance=%d\n",
				verdict.Retrieval.K, verdict.Retrieval.ScoreThreshold, verdict.Retrieval.Filter.MaxClearance)
		}
	}

	if verdict.Outcome.Denied() {
		os.Exit(1)
	}
	return nil
}
