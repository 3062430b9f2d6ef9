// Package policy defines the write-protection gate for mutating tool calls.
package policy

import (
	"fmt"
	"strings"
)

// Error is an authorization failure: the request was well-formed but the
// caller has not asserted explicit user consent for a mutating operation.
// The reason is surfaced verbatim so an agent caller knows how to remediate.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// remediation is deliberately prescriptive: the caller is an autonomous
// agent and uses these steps to decide whether to re-prompt a human.
const remediation = "This is a write operation. Before retrying: (1) show the user exactly what will change, (2) ask for their explicit confirmation, (3) only then retry the call with authorized=true."

var mutatingMethods = map[string]struct{}{
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
}

// Mutating reports whether an HTTP method requires the authorization flag.
func Mutating(method string) bool {
	_, ok := mutatingMethods[strings.ToUpper(strings.TrimSpace(method))]
	return ok
}

// RequireRestAuthorization gates rest-call. GET never consults the flag;
// POST, PUT and DELETE require it. Pure function, no I/O: it runs strictly
// before any backend request is built.
func RequireRestAuthorization(method string, authorized bool) error {
	if !Mutating(method) {
		return nil
	}
	if authorized {
		return nil
	}
	return &Error{Reason: fmt.Sprintf(
		"rest-call with method %s requires authorized=true. %s",
		strings.ToUpper(strings.TrimSpace(method)), remediation,
	)}
}

// RequireUploadAuthorization gates upload-media, which is unconditionally a
// mutating operation regardless of any other field.
func RequireUploadAuthorization(authorized bool) error {
	if authorized {
		return nil
	}
	return &Error{Reason: "upload-media always requires authorized=true. " + remediation}
}
