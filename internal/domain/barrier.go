package domain

// Barrier counts the (file, group) units of one logical block so that work
// on a shared experiment directory happens once per experiment: the
// directory is ensured on the first unit, finalized and submitted on the
// last one. A fresh Barrier is used for every block.
type Barrier struct {
	total   int
	arrived int
}

// NewBarrier returns a Barrier expecting total units.
func NewBarrier(total int) *Barrier {
	return &Barrier{total: total}
}

// Arrive registers the next unit and reports whether it is the first
// and whether it is the last of the block.
func (b *Barrier) Arrive() (first, last bool) {
	b.arrived++

	return b.arrived == 1, b.arrived == b.total
}

// Arrived returns the number of units seen so far.
func (b *Barrier) Arrived() int {
	return b.arrived
}

// Total returns the number of units expected.
func (b *Barrier) Total() int {
	return b.total
}
