package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
)

func TestRouterRegistration(t *testing.T) {
	r := NewRouter()
	r.Handle("good/path", &vaulttest.Handler{})

	assert.Panics(t, func() {
		r.Handle("b@d path!", &vaulttest.Handler{})
	})
	assert.Panics(t, func() {
		// duplicate registration
		r.Handle("good/path", &vaulttest.Handler{})
	})
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	h := &vaulttest.Handler{
		DeliverResult: vault.DeliverResult{Log: "delivered"},
	}
	r.Handle("test/good", h)

	db := vault.KVStore(nil)
	ctx := context.Background()

	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/good"}}
	res, err := r.Deliver(ctx, db, tx)
	assert.Nil(t, err)
	assert.Equal(t, "delivered", res.Log)
	assert.Equal(t, 1, h.DeliverCallCount())

	if _, err := r.Check(ctx, db, tx); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	assert.Equal(t, 1, h.CheckCallCount())

	// missing path must return not found
	missing := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/missing"}}
	if _, err := r.Deliver(ctx, db, missing); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestRouterLogsDispatchFailure(t *testing.T) {
	r := NewRouter()
	r.Handle("test/bad", &vaulttest.Handler{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrUnauthorized,
	})

	var out bytes.Buffer
	ctx := vault.WithLogger(context.Background(), log.NewTMLogger(&out))
	db := vault.KVStore(nil)
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/bad"}}

	if _, err := r.Deliver(ctx, db, tx); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	if !strings.Contains(out.String(), "test/bad") {
		t.Fatalf("dispatch failure not logged: %q", out.String())
	}

	out.Reset()
	if _, err := r.Check(ctx, db, tx); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	if !strings.Contains(out.String(), "test/bad") {
		t.Fatalf("dispatch failure not logged: %q", out.String())
	}
}
