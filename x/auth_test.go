package x_test

import (
	"context"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/x"
	"github.com/stretchr/testify/assert"
)

func TestChainAuth(t *testing.T) {
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()
	c := vaulttest.NewCondition()

	first := &vaulttest.Auth{Signer: a}
	second := &vaulttest.Auth{Signers: []vault.Condition{b, c}}
	chain := x.ChainAuth(first, second)

	ctx := context.Background()
	assert.Len(t, chain.GetConditions(ctx), 3)
	assert.True(t, chain.HasAddress(ctx, a.Address()))
	assert.True(t, chain.HasAddress(ctx, c.Address()))
	assert.False(t, chain.HasAddress(ctx, vaulttest.NewCondition().Address()))

	assert.Equal(t, a, x.MainSigner(ctx, chain))
	assert.Nil(t, x.MainSigner(ctx, x.ChainAuth()))
}

func TestHasAddresses(t *testing.T) {
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()
	c := vaulttest.NewCondition()
	auth := &vaulttest.Auth{Signers: []vault.Condition{a, b}}

	ctx := context.Background()
	all := []vault.Address{a.Address(), b.Address(), c.Address()}
	assert.False(t, x.HasAllAddresses(ctx, auth, all))
	assert.True(t, x.HasAllAddresses(ctx, auth, all[:2]))
	assert.True(t, x.HasNAddresses(ctx, auth, all, 2))
	assert.False(t, x.HasNAddresses(ctx, auth, all, 3))
	assert.True(t, x.HasNAddresses(ctx, auth, nil, 0))
}
