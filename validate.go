package authcore

import (
	"net/mail"
	"net/url"
	"strings"
)

// normalizeEmail parses and lowercases an address. Lookups and storage both
// go through it, so "User@Example.COM" and "user@example.com" are the same
// account.
func normalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

// validateCallbackURI accepts only absolute http(s) URIs. The engine embeds
// proof tokens into these, so anything else is rejected before a token is
// ever minted.
func validateCallbackURI(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Host == "" {
		return nil, false
	}
	return u, true
}

// callbackWithParams returns base with the given query parameters merged in.
func callbackWithParams(base *url.URL, params map[string]string) string {
	u := *base
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
