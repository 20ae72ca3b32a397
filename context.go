package vault

import (
	"context"
	"time"

	"github.com/iov-one/vault/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just a typedef for easier modification later.
// All values the hosting environment resolves before dispatching a
// transaction (chain id, block time, logger, authentication conditions)
// travel through it.
type Context = context.Context

type contextKey int

const (
	contextKeyChainID contextKey = iota
	contextKeyTime
	contextKeyLogger
)

// DefaultLogger is used for all context that have not set anything
// themselves.
var DefaultLogger = log.NewNopLogger()

// WithChainID is a private method, as only this module can add a chain id.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("can't modify chain id after set")
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id. Panics if chain id is not
// already set, as this indicates a configuration error.
func GetChainID(ctx Context) string {
	if ctx == nil {
		panic("context is nil")
	}
	val := ctx.Value(contextKeyChainID)
	if val == nil {
		panic("chain id is not in context")
	}
	return val.(string)
}

// WithBlockTime sets the block time for the Context. The time the host
// provides is expected to be quantized to seconds.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyTime, t)
}

// BlockTime returns the block time as declared by the hosting
// environment.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return val, nil
}

// WithLogger sets the logger for this Context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none
// was set.
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// IsExpired returns true if given time is in the past as compared to the
// "now" as declared for the current context. Expiration is inclusive,
// meaning that if current time is equal to the expiration time then this
// function returns true.
//
// This function panics if the block time is not provided in the context.
// This must never happen. The panic is here to prevent a broken setup
// from processing data incorrectly.
func IsExpired(ctx Context, t UnixTime) bool {
	blockNow, err := BlockTime(ctx)
	if err != nil {
		panic(err)
	}
	return t <= AsUnixTime(blockNow)
}
