package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ops.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadScript(t *testing.T) {
	path := writeScript(t, `
start: 2025-01-01T00:00:00Z
operations:
  - kind: transfer
    account: alice
    amount: "12.5"
  - kind: cast_vote
    caller: alice
    proposal_id: 1
    vote: for
    advance: 72h
`)

	script, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if !script.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %s", script.Start)
	}
	if len(script.Operations) != 2 {
		t.Fatalf("operations = %d, want 2", len(script.Operations))
	}
	if script.Operations[0].Kind != models.OpTransfer || script.Operations[0].Amount != "12.5" {
		t.Errorf("unexpected first operation %+v", script.Operations[0])
	}
	if script.Operations[1].Advance != 72*time.Hour {
		t.Errorf("Advance = %s, want 72h", script.Operations[1].Advance)
	}
}

func TestLoadScriptRejectsInvalidOperation(t *testing.T) {
	path := writeScript(t, "operations:\n  - kind: transfer\n    account: alice\n")

	_, err := LoadScript(path)
	if !errors.Is(err, node.ErrInvalidOperation) {
		t.Fatalf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestLoadScriptRejectsUnknownField(t *testing.T) {
	path := writeScript(t, "operations:\n  - kind: transfer\n    acount: alice\n    amount: \"1\"\n")

	if _, err := LoadScript(path); err == nil {
		t.Fatal("expected an error for a misspelled field")
	}
}
