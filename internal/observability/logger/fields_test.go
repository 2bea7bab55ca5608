package logger

import "testing"

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"ab":              "***",
		"john":            "j…n",
		"john@acme.io":    "j…@a….io",
		" John@ACME.io  ": "j…@a….io",
	}
	for in, want := range cases {
		if got := mask(in); got != want {
			t.Fatalf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenHint(t *testing.T) {
	if f := TokenHint("abc"); f.String != "****" {
		t.Fatalf("short token leaked: %q", f.String)
	}
	if f := TokenHint("eyJhbGciOi.secret.sig1234"); f.String != "…1234" {
		t.Fatalf("unexpected hint %q", f.String)
	}
}
