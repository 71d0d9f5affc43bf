package models

// Principal is the authenticated identity attached to a request after
// a successful credential or marker check.
type Principal struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
