package custody

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

const bucketName = "custody"

// vaultSeq allocates vault ids. Keys follow the pattern
// _s.<bucket>:<name> so sequence state never collides with records.
var vaultSeq = NewSequence(bucketName, "id")

// Condition derives the custody condition of a vault. Its address is
// where all vault funds are held.
func Condition(id []byte) vault.Condition {
	return vault.NewCondition("custody", "vault", id)
}

// Bucket persists Vault aggregates, one serialized record per id.
type Bucket struct {
	prefix []byte
}

// NewBucket returns a bucket for the custody vaults.
func NewBucket() Bucket {
	return Bucket{
		prefix: []byte(bucketName + ":"),
	}
}

func (b Bucket) dbKey(id []byte) []byte {
	return append(append([]byte(nil), b.prefix...), id...)
}

// Get loads the vault with this id, returning ErrNotFound if missing.
func (b Bucket) Get(db vault.ReadOnlyKVStore, id []byte) (*Vault, error) {
	raw, err := db.Get(b.dbKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "vault %x", id)
	}
	var v Vault
	if err := v.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal vault")
	}
	if v.Metadata == nil || v.Metadata.Schema != 1 {
		return nil, errors.Wrapf(errors.ErrMetadata, "vault %x schema", id)
	}
	return &v, nil
}

// Save validates and stores the vault under this id.
func (b Bucket) Save(db vault.KVStore, id []byte, v *Vault) error {
	if err := v.Validate(); err != nil {
		return errors.Wrap(err, "invalid vault")
	}
	raw, err := v.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal vault")
	}
	return db.Set(b.dbKey(id), raw)
}

// Create allocates a fresh id, stamps the custody address onto the
// vault and stores it. The allocated id is returned.
func (b Bucket) Create(db vault.KVStore, v *Vault) ([]byte, error) {
	id, err := vaultSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire id")
	}
	v.Address = Condition(id).Address()
	if err := b.Save(db, id, v); err != nil {
		return nil, err
	}
	return id, nil
}

// Sequence maintains a counter, and generates a series of keys. Each
// key is greater than the last, both NextInt() as well as
// bytes.Compare() on NextVal().
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following
// pattern to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	id := "_s." + bucket + ":" + name
	return Sequence{
		id: []byte(id),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s *Sequence) NextVal(db vault.KVStore) ([]byte, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return nil, err
	}
	val := decodeSequence(raw) + 1
	raw = encodeSequence(val)
	if err := db.Set(s.id, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeSequence(bz []byte) int64 {
	if bz == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bz))
}

func encodeSequence(val int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(val))
	return bz
}
