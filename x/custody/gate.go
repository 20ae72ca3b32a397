package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
)

// The authorization gate. All predicates are stateless and answer for
// the current configuration of the vault only.

// adminAuthorized checks the admin gate for direct ledger operations.
// With a multisig configured any of its members passes, otherwise the
// single authority must sign.
func adminAuthorized(ctx vault.Context, auth x.Authenticator, v *Vault) error {
	if v.Multisig != nil {
		for _, a := range v.Multisig.Authorities {
			if auth.HasAddress(ctx, a) {
				return nil
			}
		}
		return errors.Wrap(errors.ErrUnauthorized, "not a multisig member")
	}
	if !auth.HasAddress(ctx, v.Authority) {
		return errors.Wrap(errors.ErrUnauthorized, "not the vault authority")
	}
	return nil
}

// memberAuthorized checks multisig membership and returns the signing
// member condition address.
func memberAuthorized(ctx vault.Context, auth x.Authenticator, v *Vault) (vault.Address, error) {
	if v.Multisig == nil {
		return nil, errors.Wrap(errors.ErrState, "no multisig configured")
	}
	for _, a := range v.Multisig.Authorities {
		if auth.HasAddress(ctx, a) {
			return a, nil
		}
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "not a multisig member")
}

// emergencyAuthorized checks the emergency gate, which is independent
// of the admin gate.
func emergencyAuthorized(ctx vault.Context, auth x.Authenticator, v *Vault) error {
	if !auth.HasAddress(ctx, v.EmergencyAdmin) {
		return errors.Wrap(errors.ErrUnauthorized, "not the emergency admin")
	}
	return nil
}
