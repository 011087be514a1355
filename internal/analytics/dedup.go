package analytics

import "fintrack/internal/core"

// Signature is the identity used to detect duplicate transactions: the
// exact timestamp and amount. Kind, category and description are not
// part of it, so two different purchases at the same instant with the
// same amount collide.
type Signature struct {
	Timestamp float64
	Amount    int64
}

func SignatureOf(t core.Transaction) Signature {
	return Signature{Timestamp: t.Timestamp, Amount: t.Amount.Minor}
}

// Deduper remembers the signatures seen so far.
type Deduper struct {
	seen map[Signature]struct{}
}

// NewDeduper seeds a Deduper with existing records.
func NewDeduper(existing []core.Transaction) *Deduper {
	d := &Deduper{seen: make(map[Signature]struct{}, len(existing))}
	for _, t := range existing {
		d.Add(t)
	}
	return d
}

func (d *Deduper) IsDuplicate(t core.Transaction) bool {
	_, ok := d.seen[SignatureOf(t)]
	return ok
}

func (d *Deduper) Add(t core.Transaction) {
	d.seen[SignatureOf(t)] = struct{}{}
}

// Accept records t and reports true unless it was already seen.
func (d *Deduper) Accept(t core.Transaction) bool {
	if d.IsDuplicate(t) {
		return false
	}
	d.Add(t)
	return true
}
