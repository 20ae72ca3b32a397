package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

var _ vault.Initializer = (*Initializer)(nil)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct {
}

// FromGenesis will parse initial vault info from genesis and save it
// in the database.
func (*Initializer) FromGenesis(opts vault.Options, db vault.KVStore) error {
	var vaults []struct {
		Authority      vault.Address `json:"authority"`
		EmergencyAdmin vault.Address `json:"emergency_admin"`
		Fees           FeeConfig     `json:"fees"`
		Tickers        []string      `json:"tickers"`
	}

	if err := opts.ReadOptions("custody", &vaults); err != nil {
		return err
	}

	bucket := NewBucket()
	for i, decl := range vaults {
		admin := decl.EmergencyAdmin
		if admin == nil {
			admin = decl.Authority
		}
		v := Vault{
			Metadata:       &vault.Metadata{Schema: 1},
			Authority:      decl.Authority,
			EmergencyAdmin: admin,
			Fees:           decl.Fees,
		}
		for _, t := range decl.Tickers {
			v.openAccount(t)
		}
		if _, err := bucket.Create(db, &v); err != nil {
			return errors.Wrapf(err, "invalid vault at position: %d", i)
		}
	}
	return nil
}
