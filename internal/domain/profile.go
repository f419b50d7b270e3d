package domain

import "time"

// StartingBalance is the TP balance granted to every new profile, and the
// balance every profile is reset to by a platform reset.
const StartingBalance float64 = 1000

// Profile is a user account on the platform. The identity itself (login
// credentials) lives with the external identity provider; the profile only
// carries the platform-side state keyed by the provider's user ID.
type Profile struct {
	ID        string
	Username  string
	Balance   float64
	CreatedAt time.Time
}
