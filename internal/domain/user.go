package domain

import "time"

// AccountStatus represents lifecycle states for a portal account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is a portal login. CustomerID is set for customer accounts.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Kind         ActorKind
	CustomerID   *string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor returns the identity the account acts as.
func (a *Account) Actor() Actor {
	return Actor{ID: a.ID, Kind: a.Kind}
}
