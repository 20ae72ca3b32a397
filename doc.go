/*
Package vault defines the common interfaces and primitives that tie
together the custody extensions: identities (Condition, Address),
time (UnixTime), message and handler contracts, and context helpers
for values provided by the hosting environment (block time, logger).

The domain logic lives in x/custody. This package holds only the
plumbing that every extension and the application router share.
*/
package vault
