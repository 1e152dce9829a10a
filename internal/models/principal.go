package models

// Principal is the caller identity confirmed by the portal token verifier.
type Principal struct {
	ID    string `json:"id"`
	Token string `json:"-"`
}
