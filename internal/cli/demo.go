package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umbrellacorp/usiop/internal/assistant"
	"github.com/umbrellacorp/usiop/internal/audit"
	"github.com/umbrellacorp/usiop/internal/clearance"
	"github.com/umbrellacorp/usiop/internal/denylist"
	"github.com/umbrellacorp/usiop/internal/directory"
	"github.com/umbrellacorp/usiop/internal/model"
	"github.com/umbrellacorp/usiop/internal/policy"
	"github.com/umbrellacorp/usiop/internal/retrieval"
	"github.com/umbrellacorp/usiop/internal/session"
)

var demoKeep bool

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().BoolVar(&demoKeep, "keep", false, "Keep the demo audit log and database after the run")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted end-to-end pipeline session",
	Long: "Runs a fixed sequence of queries from employees at different\n" +
		"clearance levels through the full pipeline, including audit\n" +
		"recording and chain verification.",
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	dir, err := os.MkdirTemp("", "usiop-demo-")
	if err != nil {
		return err
	}
	if !demoKeep {
		defer os.RemoveAll(dir)
	}

	table, err := clearance.NewTable(clearance.DefaultRules())
	if err != nil {
		return err
	}

	logPath := filepath.Join(dir, "audit.jsonl")
	auditLog, err := audit.Open(logPath)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	store, err := audit.OpenStore(filepath.Join(dir, "audit.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	recorder := audit.NewRecorder(auditLog, store)

	engine := policy.NewEngine(table, denylist.NewDefault(),
		policy.WithRecorder(recorder),
	)

	docs := retrieval.NewMemoryStore()
	docs.Add(
		retrieval.Document{
			Source:       "handbook/leave.md",
			Topic:        "hr_benefits",
			ClearanceTag: 1,
			Content:      "annual leave requests go through your department supervisor",
		},
		retrieval.Document{
			Source:       "handbook/evacuation.md",
			Topic:        "emergency_procedures",
			ClearanceTag: 2,
			Content:      "evacuation routes are posted at every stairwell and exit",
		},
		retrieval.Document{
			Source:       "labs/containment.md",
			Topic:        "containment_protocols",
			ClearanceTag: 4,
			Content:      "containment breach response requires security detail escort",
		},
	)

	assist := assistant.New(engine, docs, assistant.EchoGenerator{}, recorder,
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	script := []struct {
		employee model.Identity
		query    string
	}{
		{demoEmployee("Sarah", "Chen", "HR Specialist", "Raccoon City HQ"), "how do I request annual leave"},
		{demoEmployee("Sarah", "Chen", "HR Specialist", "Raccoon City HQ"), "what is my colleague's salary"},
		{demoEmployee("Marcus", "Webb", "Software Engineer", "Umbrella Europe"), "where is the basement laboratory entrance"},
		{demoEmployee("Yuki", "Tanaka", "Research Scientist", "Umbrella Asia"), "what are the evacuation routes for the research wing"},
		{demoEmployee("Victor", "Aldrich", "Facility Administrator", "Raccoon City HQ"), "summarize the containment breach response protocol"},
	}

	ctx := context.Background()
	for i, step := range script {
		id := step.employee
		sess := session.New(id, nil)

		fmt.Printf("== turn %d: %s (SCL-%d, %s)\n", i+1, id.FullName(), id.ClearanceLevel, id.Location)
		fmt.Printf("   query: %q\n", step.query)

		response, verdict, err := assist.Respond(ctx, sess, step.query)
		if err != nil {
			return err
		}
		fmt.Printf("   outcome: %s\n", verdict.Outcome)
		if verdict.Retrieval != nil {
			fmt.Printf("   retrieval: k=%d threshold=%.2f max_clearance=%d\n",
				verdict.Retrieval.K, verdict.Retrieval.ScoreThreshold, verdict.Retrieval.Filter.MaxClearance)
		}
		fmt.Printf("%s\n\n", indent(response))
	}

	result := audit.Verify(logPath)
	if !result.Valid {
		return fmt.Errorf("audit chain broken at line %d: %s", result.ErrorLine, result.Error)
	}
	fmt.Printf("audit chain verified: %d entries\n", result.Lines)
	if demoKeep {
		fmt.Printf("artifacts kept in %s\n", dir)
	}
	return nil
}

// demoEmployee builds a consistent identity from the role and location
// tables, the same derivation the directory generator uses.
func demoEmployee(first, last, position, location string) model.Identity {
	role := directory.Roles[position]
	proto := directory.Locations[location]
	return model.Identity{
		EmployeeID:       fmt.Sprintf("demo-%s-%s", strings.ToLower(first), strings.ToLower(last)),
		Name:             first,
		LastName:         last,
		Position:         position,
		Department:       role.Department,
		ClearanceLevel:   role.Clearance,
		Location:         location,
		LocationSecurity: proto.SecurityLevel,
		FacilityAccess:   proto.Underground && role.Clearance >= 4,
	}
}

func indent(s string) string {
	return "   | " + strings.ReplaceAll(s, "\n", "\n   | ")
}
