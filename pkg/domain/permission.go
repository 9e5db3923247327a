package domain

import "sort"

// PermissionSet holds the permission tokens granted to a caller.
type PermissionSet struct {
	tokens map[string]bool
}

// NewPermissionSet builds a set with the given tokens enabled.
func NewPermissionSet(tokens ...string) PermissionSet {
	p := PermissionSet{tokens: make(map[string]bool, len(tokens))}
	for _, t := range tokens {
		p.tokens[t] = true
	}
	return p
}

// Enable grants a token.
func (p *PermissionSet) Enable(token string) {
	if p.tokens == nil {
		p.tokens = make(map[string]bool)
	}
	p.tokens[token] = true
}

// Disable revokes a token.
func (p *PermissionSet) Disable(token string) {
	delete(p.tokens, token)
}

// Has reports whether the token is granted.
func (p PermissionSet) Has(token string) bool {
	return p.tokens[token]
}

// Tokens returns the granted tokens in sorted order.
func (p PermissionSet) Tokens() []string {
	out := make([]string, 0, len(p.tokens))
	for t := range p.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Identity describes the caller of a request.
type Identity struct {
	Authenticated bool
	Permissions   PermissionSet

	// Namespace scopes the local store to this caller.
	Namespace string
}

// Anonymous is the identity of a caller without a login.
func Anonymous() Identity {
	return Identity{}
}
