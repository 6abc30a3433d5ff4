package rules

import (
	"bufio"
	"log"
	"os"
	"strings"
)

// Table holds every scoring weight, threshold and lookup set used by the
// rule engine. It is built once at startup and shared read-only across
// concurrent scans.
type Table struct {
	// Weights added to the score when a rule triggers.
	ScoreSuspiciousTLD    int
	ScoreTooManyRedirects int
	ScoreDomainMismatch   int
	ScoreBrandLookalike   int
	ScoreSensitiveForm    int
	ScoreBinaryDownload   int
	ScoreDenylistHit      int
	ScoreReputationHit    int
	ScoreNetworkError     int

	// RedirectLimit is the maximum number of redirects followed; the
	// response after the limit triggers the too-many-redirects rule.
	RedirectLimit int

	// BrandSimilarityThreshold is the 0-100 similarity a domain label must
	// exceed against a brand name to count as a lookalike.
	BrandSimilarityThreshold int

	// Verdict thresholds.
	UnsafeThreshold     int
	SuspiciousThreshold int

	BrandNames        []string
	SensitiveKeywords []string
	SuspiciousTLDs    map[string]struct{}
	Denylist          map[string]struct{}
}

// Default returns the built-in rule table with empty TLD and denylist
// sets. Callers populate the sets with LoadSuspiciousTLDs / LoadDenylist.
func Default() *Table {
	return &Table{
		ScoreSuspiciousTLD:    15,
		ScoreTooManyRedirects: 15,
		ScoreDomainMismatch:   20,
		ScoreBrandLookalike:   25,
		ScoreSensitiveForm:    30,
		ScoreBinaryDownload:   20,
		ScoreDenylistHit:      40,
		ScoreReputationHit:    35,
		ScoreNetworkError:     10,

		RedirectLimit:            3,
		BrandSimilarityThreshold: 80,
		UnsafeThreshold:          60,
		SuspiciousThreshold:      30,

		BrandNames: []string{
			"paypal", "google", "amazon", "apple", "microsoft", "facebook",
			"instagram", "twitter", "linkedin", "netflix", "spotify", "ebay",
			"walmart", "target", "chase", "wellsfargo", "bankofamerica",
		},
		SensitiveKeywords: []string{"password", "otp", "card", "cvv", "ssn", "pin"},
		SuspiciousTLDs:    make(map[string]struct{}),
		Denylist:          make(map[string]struct{}),
	}
}

// LoadSuspiciousTLDs reads one TLD per line into the table. A missing
// file is a warning, not an error; the set stays as is.
func (t *Table) LoadSuspiciousTLDs(path string) {
	if err := loadLines(path, func(line string) {
		t.SuspiciousTLDs[strings.TrimPrefix(line, ".")] = struct{}{}
	}); err != nil {
		log.Printf("warning: suspicious TLDs file not loaded from %q: %v", path, err)
	}
}

// LoadDenylist reads one hostname per line into the table, lowercased. A
// missing file is a warning, not an error.
func (t *Table) LoadDenylist(path string) {
	if err := loadLines(path, func(line string) {
		t.Denylist[strings.ToLower(line)] = struct{}{}
	}); err != nil {
		log.Printf("warning: denylist file not loaded from %q: %v", path, err)
	}
}

// loadLines reads a line-oriented list file, skipping blank lines and
// lines starting with '#'.
func loadLines(path string, add func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		add(line)
	}
	return scanner.Err()
}
