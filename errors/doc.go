/*
Package errors implements custom error interfaces for the vault state
machine.

Each returned error is built from a registered root error that carries a
unique numeric code. The hosting environment reports those codes to the
caller, so error equality is tested with the root's Is method rather than
by string comparison:

	if errors.ErrUnauthorized.Is(err) {
		...
	}

Errors are wrapped on the way up the call stack using Wrap and Wrapf,
which also attach a stack trace to the innermost failure.
*/
package errors
