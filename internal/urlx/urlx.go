package urlx

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	// ErrScheme is returned for URLs whose scheme is not http or https.
	ErrScheme = errors.New("unsupported URL scheme")
	// ErrNoHost is returned for URLs without a host component.
	ErrNoHost = errors.New("URL has no host")
)

// Normalize canonicalizes a raw input string into a scheme-qualified URL.
// Inputs without a scheme get https:// prepended; inputs that already
// carry a scheme other than http or https are rejected outright, never
// re-prefixed. Structurally invalid URLs and host-less URLs are also
// rejected. No network access is performed.
func Normalize(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "://"); i >= 0 {
		switch strings.ToLower(raw[:i]) {
		case "http", "https":
		default:
			return nil, ErrScheme
		}
	} else {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrScheme
	}
	if u.Hostname() == "" {
		return nil, ErrNoHost
	}
	return u, nil
}

// ASCIIHost lowercases a hostname and converts any IDN labels to their
// punycode form, so lookalike and suffix checks run on a single alphabet.
func ASCIIHost(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

// RegistrableDomain returns the eTLD+1 for a hostname ("example.com" for
// "www.example.com"), or the host itself when no registrable domain can
// be derived (IPs, bare TLDs).
func RegistrableDomain(host string) string {
	host = ASCIIHost(host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// PublicSuffix returns the public suffix of a hostname ("com" for
// "www.example.com", "co.uk" for "x.co.uk").
func PublicSuffix(host string) string {
	suffix, _ := publicsuffix.PublicSuffix(ASCIIHost(host))
	return suffix
}

// SecondLevelLabel returns the label directly under the public suffix
// ("paypa1" for "www.paypa1.com"). Empty when the host is itself a
// public suffix or an IP address.
func SecondLevelLabel(host string) string {
	d := RegistrableDomain(host)
	suffix := PublicSuffix(host)
	if suffix == "" || d == suffix || !strings.HasSuffix(d, "."+suffix) {
		return ""
	}
	return strings.TrimSuffix(d, "."+suffix)
}
