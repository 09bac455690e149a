package vrp

// Amount is a fixed-dimension load vector (weight, volume, pieces...).
// Every amount in one problem shares the dimension fixed by the first
// vehicle's capacity length.
type Amount []int64

// NewAmount returns a zero amount of dimension n.
func NewAmount(n int) Amount { return make(Amount, n) }

// Clone returns an independent copy.
func (a Amount) Clone() Amount {
	out := make(Amount, len(a))
	copy(out, a)
	return out
}

// Add adds b into a in place.
func (a Amount) Add(b Amount) {
	for i := range a {
		a[i] += b[i]
	}
}

// Sub subtracts b from a in place.
func (a Amount) Sub(b Amount) {
	for i := range a {
		a[i] -= b[i]
	}
}

// LE reports whether a <= b component-wise.
func (a Amount) LE(b Amount) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

// Nonnegative reports whether every component is >= 0.
func (a Amount) Nonnegative() bool {
	for i := range a {
		if a[i] < 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether every component is zero.
func (a Amount) IsZero() bool {
	for i := range a {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// Total is the sum of all components, used for amount-based tie breaking.
func (a Amount) Total() int64 {
	var t int64
	for i := range a {
		t += a[i]
	}
	return t
}
