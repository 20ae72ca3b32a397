package store

import (
	"bytes"

	"github.com/google/btree"

	"github.com/iov-one/vault/errors"
)

// ascendBtree collects all cached items within the given range in
// ascending order. The cache is bounded by the transaction scope so
// materializing the range is cheap.
func ascendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	insert := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}

	if start == nil && end == nil {
		bt.Ascend(insert)
	} else if start == nil { // end != nil
		bt.AscendLessThan(bkey{end}, insert)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(bkey{start}, insert)
	} else { // both != nil
		bt.AscendRange(bkey{start}, bkey{end}, insert)
	}
	return items
}

// descendBtree collects all cached items within the given range in
// descending order.
func descendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	insert := func(item btree.Item) bool {
		items = append(items, item.(keyer))
		return true
	}

	if start == nil && end == nil {
		bt.Descend(insert)
	} else if start == nil { // end != nil
		bt.DescendLessOrEqual(bkeyLess{end}, insert)
	} else if end == nil { // start != nil
		bt.DescendGreaterThan(bkeyLess{start}, insert)
	} else { // both != nil
		bt.DescendRange(bkeyLess{end}, bkeyLess{start}, insert)
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// itemIter combines cached items with the backing store iterator,
// taking into consideration overwrites and deletes.
type itemIter struct {
	items   []keyer
	parent  Iterator
	reverse bool

	// one item lookahead on the parent
	parentKey   []byte
	parentValue []byte
	parentDone  bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(items []keyer, parent Iterator, reverse bool) *itemIter {
	iter := &itemIter{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
	iter.advanceParent()
	return iter
}

// Next returns the next key/value pair, with cached writes shadowing
// the backing store. It returns ErrIteratorDone when exhausted.
func (i *itemIter) Next() ([]byte, []byte, error) {
	for {
		switch i.firstKey() {
		case none:
			return nil, nil, errors.ErrIteratorDone
		case parent:
			key, value := i.parentKey, i.parentValue
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// cache wins, drop the parent version of the key
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			fallthrough
		case us:
			item := i.items[0]
			i.items = i.items[1:]
			if set, ok := item.(setItem); ok {
				return set.Key(), set.value, nil
			}
			// deleted item shadows the backing store, keep going
		}
	}
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	i.items = nil
	i.parentDone = true
	if i.parent != nil {
		i.parent.Release()
	}
}

func (i *itemIter) advanceParent() error {
	if i.parent == nil {
		i.parentDone = true
		return nil
	}
	key, value, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentValue = key, value
		return nil
	case errors.ErrIteratorDone.Is(err):
		i.parentDone = true
		return nil
	default:
		return err
	}
}

// firstKey selects the source with the lowest (or highest when
// iterating in reverse) key, if any.
func (i *itemIter) firstKey() source {
	if i.parentDone {
		if len(i.items) == 0 {
			return none
		}
		return us
	}
	if len(i.items) == 0 {
		return parent
	}

	cmp := bytes.Compare(i.parentKey, i.items[0].Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
