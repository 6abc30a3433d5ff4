package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadSuspiciousTLDs(t *testing.T) {
	path := writeFile(t, "tlds.txt", "# comment\nzip\n\n.xyz\n  top  \n")

	table := Default()
	table.LoadSuspiciousTLDs(path)

	for _, want := range []string{"zip", "xyz", "top"} {
		if _, ok := table.SuspiciousTLDs[want]; !ok {
			t.Errorf("expected TLD %q loaded", want)
		}
	}
	if len(table.SuspiciousTLDs) != 3 {
		t.Fatalf("expected 3 TLDs, got %d", len(table.SuspiciousTLDs))
	}
}

func TestLoadDenylist(t *testing.T) {
	path := writeFile(t, "deny.txt", "Evil.Example\n# nope\n\nphish.example\n")

	table := Default()
	table.LoadDenylist(path)

	if _, ok := table.Denylist["evil.example"]; !ok {
		t.Errorf("expected lowercased denylist entry")
	}
	if _, ok := table.Denylist["phish.example"]; !ok {
		t.Errorf("expected phish.example loaded")
	}
	if len(table.Denylist) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(table.Denylist))
	}
}

func TestMissingFileLeavesSetEmpty(t *testing.T) {
	table := Default()
	table.LoadSuspiciousTLDs(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	table.LoadDenylist(filepath.Join(t.TempDir(), "does-not-exist.txt"))

	if len(table.SuspiciousTLDs) != 0 || len(table.Denylist) != 0 {
		t.Fatalf("expected empty sets for missing files")
	}
}

func TestDefaultWeights(t *testing.T) {
	table := Default()
	if table.RedirectLimit != 3 {
		t.Errorf("RedirectLimit = %d, want 3", table.RedirectLimit)
	}
	if table.UnsafeThreshold != 60 || table.SuspiciousThreshold != 30 {
		t.Errorf("unexpected thresholds: %d / %d", table.UnsafeThreshold, table.SuspiciousThreshold)
	}
	if table.ScoreDenylistHit == table.ScoreReputationHit {
		t.Errorf("denylist and reputation weights must be distinct")
	}
}
