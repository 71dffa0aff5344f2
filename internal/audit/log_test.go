package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	return l, path
}

func testEntry(outcome string) Entry {
	return Entry{
		ID:        "test-entry",
		SessionID: "sess-1",
		Identity: IdentitySnapshot{
			EmployeeID: "e-100",
			Name:       "Ada Kessler",
			Department: "R&D",
			Location:   "Raccoon City HQ",
			Clearance:  3,
		},
		Query:     "what are the research guidelines",
		Outcome:   outcome,
		Reason:    "query within clearance",
		TableHash: "sha256:abc123",
	}
}

func TestSequentialAppendsProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Append(testEntry("allowed")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 3; i++ {
		if err := l.Append(testEntry("allowed")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	l.Close()

	// Flip the outcome in line 2
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"allowed"`, `"denied_omega7"`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.ErrorLine != 3 {
		t.Fatalf("expected error at line 3, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsDeletedEntry(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 3; i++ {
		if err := l.Append(testEntry("allowed")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	remaining := []string{lines[0], lines[2]}
	os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected chain with deleted entry to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(testEntry("allowed")); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l2.Append(testEntry("denied_omega7")); err != nil {
		t.Fatal(err)
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("chain broke across reopen at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 2 {
		t.Fatalf("expected 2 lines, got %d", result.Lines)
	}
}

func TestConcurrentAppendsProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Append(testEntry("allowed")); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after concurrent appends, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 50 {
		t.Fatalf("expected 50 lines, got %d", result.Lines)
	}
}

func TestVerifyRejectsBadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	os.WriteFile(path, []byte(`{"id":"x","ts":"t","session_id":"s","identity":{},"query":"q","outcome":"allowed","reason":"r","prev_hash":"sha256:deadbeef"}`+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected invalid genesis to fail verification")
	}
	if result.ErrorLine != 1 {
		t.Fatalf("expected error at line 1, got %d", result.ErrorLine)
	}
}
