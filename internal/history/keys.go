package history

import "strconv"

// KeyBatch issues dedup keys for one fetch.
//
// Items lacking a remote identifier get a composite key. Two genuinely
// distinct items can share the same composite (two identical grades on the
// same day), so each composite gets a counter suffix that is bumped while the
// key was already issued in this batch. The counter only looks at the
// current batch, never at history.
//
// The suffix depends on the order the portal returns items in. If that order
// changes between runs, two identical-looking items may swap suffixes; this
// is harmless as long as both were already notified.
type KeyBatch struct {
	seen map[string]struct{}
}

func NewKeyBatch() *KeyBatch {
	return &KeyBatch{seen: map[string]struct{}{}}
}

// Next returns base + " - N" for the smallest N >= 1 not yet issued.
func (b *KeyBatch) Next(base string) string {
	if b.seen == nil {
		b.seen = map[string]struct{}{}
	}
	for n := 1; ; n++ {
		key := base + " - " + strconv.Itoa(n)
		if _, dup := b.seen[key]; dup {
			continue
		}
		b.seen[key] = struct{}{}
		return key
	}
}
