package urlx

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bareDomain", in: "example.com", want: "https://example.com"},
		{name: "bareDomainWithPath", in: "example.com/login", want: "https://example.com/login"},
		{name: "httpKept", in: "http://example.com", want: "http://example.com"},
		{name: "httpsKept", in: "https://example.com/x", want: "https://example.com/x"},
		{name: "whitespaceTrimmed", in: "  example.com  ", want: "https://example.com"},
		{name: "upperSchemeKept", in: "HTTP://example.com", want: "http://example.com"},
		{name: "ftpRejected", in: "ftp://x", wantErr: true},
		{name: "ftpUpperRejected", in: "FTP://x", wantErr: true},
		{name: "gopherRejected", in: "gopher://host/1", wantErr: true},
		{name: "javascriptRejected", in: "javascript:alert(1)", wantErr: true},
		{name: "emptyRejected", in: "", wantErr: true},
		{name: "noHostRejected", in: "https:///path", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %v, want error", tt.in, u)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.in, err)
			}
			if u.String() != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, u.String(), tt.want)
			}
		})
	}
}

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"EXAMPLE.COM", "example.com"},
	}
	for _, tt := range tests {
		if got := RegistrableDomain(tt.host); got != tt.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestSecondLevelLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		host string
		want string
	}{
		{"www.paypa1.com", "paypa1"},
		{"login.example.co.uk", "example"},
		{"example.com", "example"},
		{"com", ""},
	}
	for _, tt := range tests {
		if got := SecondLevelLabel(tt.host); got != tt.want {
			t.Errorf("SecondLevelLabel(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
