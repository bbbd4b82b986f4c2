package scheduler

// Ring is a fixed-size circular buffer of per-cycle movement counts, from
// which a rolling average is computed.
type Ring struct {
	values []int
	next   int
	full   bool
}

// NewRing returns a Ring of |size|, which must be > 0.
func NewRing(size int) *Ring {
	if size <= 0 {
		panic("ring size must be > 0")
	}
	return &Ring{values: make([]int, size)}
}

// Push |v|, displacing the oldest value if the Ring is full.
func (r *Ring) Push(v int) {
	r.values[r.next] = v
	if r.next++; r.next == len(r.values) {
		r.next, r.full = 0, true
	}
}

// Len is the number of values held.
func (r *Ring) Len() int {
	if r.full {
		return len(r.values)
	}
	return r.next
}

// Average of held values, or zero if there are none.
func (r *Ring) Average() float64 {
	var n = r.Len()
	if n == 0 {
		return 0
	}
	var sum int
	for _, v := range r.values[:n] {
		sum += v
	}
	return float64(sum) / float64(n)
}
