package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clinicworks/visitlink"
	"github.com/clinicworks/visitlink/internal/ingest"
	"github.com/clinicworks/visitlink/internal/masterlist"
	"github.com/clinicworks/visitlink/internal/report"
	"github.com/clinicworks/visitlink/pkg/identity"
)

const amdCSV = `Patient Name (First Last),Patient Birth Date,Service Date,Charges,Insurance Payments,Patient Payments
"Doe, Jane",01/01/1990,09/23/2025,$175.00,0,0
"Smith, John",06/01/1990,09/24/2025,$90.00,$90.00,0
"Nobody, Max",02/02/2000,09/25/2025,$50.00,0,0
`

const promptCSV = `Patient Account Number,DOS,Case Primary Insurance,Primary Allowed,Primary Insurance Paid,Total Paid
A1,09/23/2025,Acme Insurance,0,0,0
A2,09/24/2025,Acme Insurance,90.00,90.00,90.00
A9,09/26/2025,Acme Insurance,120.00,120.00,120.00
`

const masterJSON = `{
  "last_updated": "2025-09-01T00:00:00Z",
  "total_patients": 2,
  "patients": [
    {"prompt_id": "A1", "patient_name": "Jane Doe", "date_of_birth": "1/1/1990"},
    {"prompt_id": "A2", "patient_name": "John Smith", "date_of_birth": "6/1/1990"}
  ]
}
`

// TestPipelineFromFiles runs the whole flow the CLI performs: read the two
// CSV exports and the master list from disk, reconcile, and write the three
// output datasets plus the report back to disk.
func TestPipelineFromFiles(t *testing.T) {
	dir := t.TempDir()
	amdPath := filepath.Join(dir, "amd.csv")
	promptPath := filepath.Join(dir, "prompt.csv")
	masterPath := filepath.Join(dir, "master.json")

	for path, content := range map[string]string{
		amdPath:    amdCSV,
		promptPath: promptCSV,
		masterPath: masterJSON,
	} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	master, err := masterlist.Load(masterPath)
	if err != nil {
		t.Fatalf("load master list: %v", err)
	}
	if master.Len() != 2 {
		t.Fatalf("master list has %d entries, want 2", master.Len())
	}

	amd, err := ingest.ReadCSV(amdPath)
	if err != nil {
		t.Fatalf("read amd export: %v", err)
	}
	prompt, err := ingest.ReadCSV(promptPath)
	if err != nil {
		t.Fatalf("read prompt export: %v", err)
	}

	rec, err := visitlink.New(master)
	if err != nil {
		t.Fatalf("create reconciler: %v", err)
	}
	outcome, err := rec.Run(context.Background(), amd, prompt)
	if err != nil {
		t.Fatalf("run reconciliation: %v", err)
	}

	// Jane and John match; Max is unknown to the master list; A9 has no
	// billing row.
	if outcome.Stats.Matched != 2 {
		t.Errorf("matched = %d, want 2", outcome.Stats.Matched)
	}
	if outcome.Stats.AMDOnly != 1 {
		t.Errorf("amd-only = %d, want 1", outcome.Stats.AMDOnly)
	}
	if outcome.Stats.PromptOnly != 1 {
		t.Errorf("prompt-only = %d, want 1", outcome.Stats.PromptOnly)
	}
	// Jane's visit was billed but never got an allowed amount.
	if outcome.Stats.Discrepancies != 1 {
		t.Errorf("discrepancies = %d, want 1", outcome.Stats.Discrepancies)
	}

	// Round-trip the projections through the CSV writer and reader.
	outDir := filepath.Join(dir, "out")
	matchedPath := filepath.Join(outDir, "matched.csv")
	if err := ingest.WriteCSV(matchedPath, outcome.Matched); err != nil {
		t.Fatalf("write matched: %v", err)
	}
	reread, err := ingest.ReadCSV(matchedPath)
	if err != nil {
		t.Fatalf("re-read matched: %v", err)
	}
	if reread.Len() != outcome.Matched.Len() {
		t.Errorf("re-read matched has %d rows, want %d", reread.Len(), outcome.Matched.Len())
	}

	var sb strings.Builder
	if err := report.Write(&sb, outcome.Stats, time.Now(), nil); err != nil {
		t.Fatalf("render report: %v", err)
	}
	if !strings.Contains(sb.String(), "AMD vs Prompt EHR Reconciliation Report") {
		t.Error("report missing title")
	}
}

// TestPipelinePersistsOperatorDecisions verifies a merged master list written
// to disk drives resolution on the next run.
func TestPipelinePersistsOperatorDecisions(t *testing.T) {
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "master.yaml")

	master := identity.NewMaster(nil)
	master.Append(identity.Identity{ID: "B7", Name: "Maria Garcia", DOB: "3/3/1993"})
	if err := masterlist.Save(masterPath, master); err != nil {
		t.Fatalf("save master list: %v", err)
	}

	reloaded, err := masterlist.Load(masterPath)
	if err != nil {
		t.Fatalf("reload master list: %v", err)
	}

	resolver, err := identity.NewResolver(reloaded)
	if err != nil {
		t.Fatalf("create resolver: %v", err)
	}
	res, err := resolver.Resolve(context.Background(), "Garcia, Maria", "03/03/1993")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != identity.StatusResolved || res.ID != "B7" {
		t.Errorf("resolution = %v/%s, want resolved/B7", res.Status, res.ID)
	}
}
