package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// Seed is the JSON document accepted by LoadSeed.
type Seed struct {
	Customers []string      `json:"customers"`
	Products  []string      `json:"products"`
	Accounts  []SeedAccount `json:"accounts"`
}

// SeedAccount is a portal login with a plaintext password.
type SeedAccount struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Kind       string  `json:"kind"`
	CustomerID *string `json:"customer_id"`
}

// LoadSeed reads a Seed from r into the store, hashing passwords with hash.
func (s *Store) LoadSeed(r io.Reader, hash func(string) (string, error)) error {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	s.PutReference(domain.ReferenceCustomer, seed.Customers...)
	s.PutReference(domain.ReferenceProduct, seed.Products...)

	now := time.Now().UTC()
	for i, acc := range seed.Accounts {
		kind := domain.ActorKind(strings.ToUpper(acc.Kind))
		if kind != domain.ActorKindStaff && kind != domain.ActorKindCustomer {
			return fmt.Errorf("seed account %d: unknown kind %q", i, acc.Kind)
		}
		if kind == domain.ActorKindCustomer && acc.CustomerID == nil {
			return fmt.Errorf("seed account %d: customer accounts need customer_id", i)
		}
		if acc.ID == "" || acc.Email == "" || acc.Password == "" {
			return fmt.Errorf("seed account %d: id, email and password are required", i)
		}
		hashed, err := hash(acc.Password)
		if err != nil {
			return fmt.Errorf("seed account %d: %w", i, err)
		}
		s.PutAccount(domain.Account{
			ID:           acc.ID,
			Email:        acc.Email,
			PasswordHash: hashed,
			Kind:         kind,
			CustomerID:   acc.CustomerID,
			Status:       domain.AccountStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return nil
}
