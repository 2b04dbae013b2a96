package authcore

import (
	"net/url"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"alice@example.com", "alice@example.com", true},
		{"Alice@Example.COM", "alice@example.com", true},
		{"  alice@example.com  ", "alice@example.com", true},
		{"", "", false},
		{"not an email", "", false},
		{"Alice Smith <alice@example.com>", "", false},
		{"alice@", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeEmail(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("normalizeEmail(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidateCallbackURI(t *testing.T) {
	valid := []string{
		"https://app.example.com/confirm",
		"http://localhost:8080/reset",
	}
	for _, raw := range valid {
		if _, ok := validateCallbackURI(raw); !ok {
			t.Fatalf("validateCallbackURI(%q) rejected a valid URI", raw)
		}
	}

	invalid := []string{
		"",
		"/relative/path",
		"ftp://example.com/x",
		"javascript:alert(1)",
		"https://",
	}
	for _, raw := range invalid {
		if _, ok := validateCallbackURI(raw); ok {
			t.Fatalf("validateCallbackURI(%q) accepted an invalid URI", raw)
		}
	}
}

func TestCallbackWithParams(t *testing.T) {
	base, _ := url.Parse("https://app.example.com/confirm?utm=x")

	out := callbackWithParams(base, map[string]string{
		"token": "abc",
		"email": "alice@example.com",
	})

	u, err := url.Parse(out)
	if err != nil {
		t.Fatalf("result did not parse: %v", err)
	}
	q := u.Query()
	if q.Get("token") != "abc" {
		t.Fatalf("token param = %q", q.Get("token"))
	}
	if q.Get("email") != "alice@example.com" {
		t.Fatalf("email param = %q", q.Get("email"))
	}
	if q.Get("utm") != "x" {
		t.Fatal("existing query parameter lost")
	}
	if base.RawQuery != "utm=x" {
		t.Fatal("base URL mutated")
	}
}
