// Package auth implements the stateless access-control core of the judge
// platform: an ordered authority scale, a signed token codec, and the access
// decision that combines resource ownership with a minimum authority floor.
//
// The package performs no I/O. Tokens are self-contained: once issued they
// are valid until their embedded expiry, and the server keeps no session
// state and no revocation list.
package auth

import "fmt"

// Authority is a rank in the totally ordered permission scale. Ranks are
// encoded as ascending integers and serialized as such; comparing two
// authorities is always a numeric comparison on the rank, never a name or
// identity check. Gaps between ranks are intentional so new roles can be
// inserted without renumbering.
type Authority int16

const (
	// Tourist is an unauthenticated visitor.
	Tourist Authority = 0
	// User is a registered account.
	User Authority = 10
	// Judger is a judging worker allowed to report verdicts.
	Judger Authority = 20
	// Admin may act on any resource.
	Admin Authority = 30
)

// AtLeast reports whether a grants at least the privileges of required.
func (a Authority) AtLeast(required Authority) bool { return a >= required }

// Valid reports whether a is one of the defined ranks.
func (a Authority) Valid() bool {
	switch a {
	case Tourist, User, Judger, Admin:
		return true
	}
	return false
}

// String returns a lowercase role name for logs.
func (a Authority) String() string {
	switch a {
	case Tourist:
		return "tourist"
	case User:
		return "user"
	case Judger:
		return "judger"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("authority(%d)", int16(a))
}
