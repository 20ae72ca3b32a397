package vault

import (
	"github.com/iov-one/vault/errors"
)

// Metadata carries the schema version of the entity it is attached to.
// Every persisted payload and every message embeds it as the first
// attribute, so that a load can verify it understands the layout before
// interpreting the rest.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata does not describe a legal
// schema version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "no metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version below 1")
	}
	return nil
}

// Copy returns an independent copy of this metadata, nil safe.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
