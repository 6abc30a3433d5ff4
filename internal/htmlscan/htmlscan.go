package htmlscan

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	metaURLRe    = regexp.MustCompile(`(?i)url\s*=\s*(?:'([^']*)'|"([^"]*)"|([^'";\s>]+))`)
	// The leading boundary keeps identifiers like "mylocation" or other
	// objects' .location properties from matching.
	jsRedirectRe = regexp.MustCompile(`(?i)(?:^|[^\w$.])(?:window\.|document\.)?location(?:(?:\.href)?\s*=\s*|\.replace\(\s*)['"]([^'"]+)['"]`)
)

// ShouldScanBody checks whether a content type indicates an HTML body
// worth fetching.
func ShouldScanBody(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "text/html")
}

// ReadBody reads from r up to limit bytes.
func ReadBody(r io.Reader, limit int64) []byte {
	buf := make([]byte, limit)
	n, _ := io.ReadFull(io.LimitReader(r, limit), buf)
	return buf[:n]
}

// FindRedirect statically detects a client-side redirect in an HTML body
// and resolves it against base. It checks the first meta refresh tag,
// then script bodies in document order for a location assignment or a
// location.replace call. Only the first match is used; scripts are not
// executed and the result is never re-scanned.
func FindRedirect(body []byte, base *url.URL) (*url.URL, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}

	if target, ok := metaRefreshTarget(doc); ok {
		if next, err := url.Parse(target); err == nil {
			return base.ResolveReference(next), true
		}
	}

	var found *url.URL
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := jsRedirectRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		next, err := url.Parse(m[1])
		if err != nil {
			return true
		}
		found = base.ResolveReference(next)
		return false
	})
	return found, found != nil
}

func metaRefreshTarget(doc *goquery.Document) (string, bool) {
	target := ""
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := s.Attr("content")
		if m := metaURLRe.FindStringSubmatch(content); m != nil {
			for _, g := range m[1:] {
				if g != "" {
					target = strings.TrimSpace(g)
					break
				}
			}
		}
		// only the first refresh tag is considered
		return false
	})
	return target, target != ""
}

// HasSensitiveForm reports whether the body contains a form with a
// password input, or an input whose name or id contains one of the
// given keywords.
func HasSensitiveForm(body []byte, keywords []string) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}

	sensitive := false
	doc.Find("form input").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("type")
		if strings.EqualFold(typ, "password") {
			sensitive = true
			return false
		}
		name, _ := s.Attr("name")
		id, _ := s.Attr("id")
		name = strings.ToLower(name)
		id = strings.ToLower(id)
		for _, kw := range keywords {
			if strings.Contains(name, kw) || strings.Contains(id, kw) {
				sensitive = true
				return false
			}
		}
		return true
	})
	return sensitive
}
