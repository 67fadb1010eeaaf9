package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/domain"
)

func plainHash(p string) (string, error) { return "hashed:" + p, nil }

func TestLoadSeed(t *testing.T) {
	t.Parallel()

	store := NewStore()
	err := store.LoadSeed(strings.NewReader(`{
		"customers": ["cust-1"],
		"products": ["p-1", "p-2"],
		"accounts": [
			{"id": "staff-1", "email": "Ops@Shop.test", "password": "pw", "kind": "staff"},
			{"id": "acc-1", "email": "buyer@shop.test", "password": "pw", "kind": "CUSTOMER", "customer_id": "cust-1"}
		]
	}`), plainHash)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := store.References().Exists(ctx, domain.ReferenceProduct, "p-2")
	require.NoError(t, err)
	require.True(t, ok)

	staff, err := store.Accounts().GetByEmail(ctx, "ops@shop.test")
	require.NoError(t, err)
	require.Equal(t, domain.ActorKindStaff, staff.Kind)
	require.Equal(t, "hashed:pw", staff.PasswordHash)

	buyer, err := store.Accounts().GetByID(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, "cust-1", *buyer.CustomerID)
}

func TestLoadSeed_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown field":    `{"widgets": []}`,
		"bad kind":         `{"accounts": [{"id": "a", "email": "a@x", "password": "p", "kind": "robot"}]}`,
		"customer no link": `{"accounts": [{"id": "a", "email": "a@x", "password": "p", "kind": "customer"}]}`,
		"missing password": `{"accounts": [{"id": "a", "email": "a@x", "kind": "staff"}]}`,
	}
	for name, doc := range cases {
		doc := doc
		t.Run(name, func(t *testing.T) {
			require.Error(t, NewStore().LoadSeed(strings.NewReader(doc), plainHash))
		})
	}
}
