package detect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/selimozcann/LinkVerdict/internal/htmlscan"
	"github.com/selimozcann/LinkVerdict/internal/rules"
	"github.com/selimozcann/LinkVerdict/internal/urlx"
)

// Hit is one triggered rule: the weight it contributes and the
// human-readable reason recorded in the verdict.
type Hit struct {
	Score  int
	Reason string
}

// SuspiciousTLD checks whether the host's public suffix is in the
// suspicious TLD set.
func SuspiciousTLD(t *rules.Table, host string) *Hit {
	suffix := urlx.PublicSuffix(host)
	if suffix == "" {
		return nil
	}
	if _, ok := t.SuspiciousTLDs[suffix]; !ok {
		return nil
	}
	return &Hit{Score: t.ScoreSuspiciousTLD, Reason: fmt.Sprintf("Suspicious TLD (.%s)", suffix)}
}

// BrandLookalike compares the host's second-level label against the
// brand list; the first brand whose similarity exceeds the threshold
// wins.
func BrandLookalike(t *rules.Table, host string) *Hit {
	label := urlx.SecondLevelLabel(host)
	if label == "" {
		return nil
	}
	for _, brand := range t.BrandNames {
		if similarity(label, brand) > t.BrandSimilarityThreshold {
			return &Hit{
				Score:  t.ScoreBrandLookalike,
				Reason: fmt.Sprintf("Potential brand impersonation (looks like '%s')", brand),
			}
		}
	}
	return nil
}

// similarity is a 0-100 normalized Levenshtein ratio.
func similarity(a, b string) int {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	if d > longest {
		d = longest
	}
	return 100 * (longest - d) / longest
}

// RedirectLimit scores a trace that exceeded the configured hop limit.
func RedirectLimit(t *rules.Table, exceeded bool) *Hit {
	if !exceeded {
		return nil
	}
	return &Hit{Score: t.ScoreTooManyRedirects, Reason: "Exceeded redirect limit"}
}

// DomainMismatch compares the registrable domains of the input and final
// URLs, so subdomains of the same site do not trigger.
func DomainMismatch(t *rules.Table, inputHost, finalURL string) *Hit {
	u, err := url.Parse(finalURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	if urlx.RegistrableDomain(inputHost) == urlx.RegistrableDomain(u.Hostname()) {
		return nil
	}
	return &Hit{Score: t.ScoreDomainMismatch, Reason: "Redirected to a different domain"}
}

// BinaryDownload checks whether the terminal response is a file download.
func BinaryDownload(t *rules.Table, contentType, disposition string) *Hit {
	isBinary := strings.Contains(strings.ToLower(contentType), "application/octet-stream")
	isAttachment := strings.HasPrefix(strings.ToLower(strings.TrimSpace(disposition)), "attachment")
	if !isBinary && !isAttachment {
		return nil
	}
	return &Hit{Score: t.ScoreBinaryDownload, Reason: "Leads to a file download"}
}

// SensitiveForm scans a terminal HTML body for password or otherwise
// sensitive input fields.
func SensitiveForm(t *rules.Table, body []byte) *Hit {
	if len(body) == 0 || !htmlscan.HasSensitiveForm(body, t.SensitiveKeywords) {
		return nil
	}
	return &Hit{Score: t.ScoreSensitiveForm, Reason: "Page contains a sensitive data form (password, etc.)"}
}

// NetworkError scores a trace aborted by a transport failure.
func NetworkError(t *rules.Table, failed bool) *Hit {
	if !failed {
		return nil
	}
	return &Hit{Score: t.ScoreNetworkError, Reason: "Network error during scan"}
}
