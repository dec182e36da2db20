package analysis

// BitSet is a compact set of block indices using a bitmap.
type BitSet struct {
	bits []uint64
}

// NewBitSet creates a BitSet that can hold values up to maxVal (inclusive).
func NewBitSet(maxVal int) *BitSet {
	words := (maxVal + 64) / 64
	return &BitSet{bits: make([]uint64, words)}
}

// Set adds val to the set. Negative values are ignored.
func (b *BitSet) Set(val int) {
	if val < 0 {
		return
	}
	word := val / 64
	if word >= len(b.bits) {
		b.grow(word + 1)
	}
	b.bits[word] |= 1 << (uint(val) % 64)
}

// Has returns true if val is in the set.
func (b *BitSet) Has(val int) bool {
	if val < 0 {
		return false
	}
	word := val / 64
	if word >= len(b.bits) {
		return false
	}
	return b.bits[word]&(1<<(uint(val)%64)) != 0
}

// Fill adds every value in [0, n) to the set.
func (b *BitSet) Fill(n int) {
	for i := 0; i < n; i++ {
		b.Set(i)
	}
}

// Intersect removes all elements not in other.
func (b *BitSet) Intersect(other *BitSet) {
	for i := range b.bits {
		if i < len(other.bits) {
			b.bits[i] &= other.bits[i]
		} else {
			b.bits[i] = 0
		}
	}
}

// Equal reports whether both sets hold the same elements.
func (b *BitSet) Equal(other *BitSet) bool {
	n := max(len(b.bits), len(other.bits))
	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(b.bits) {
			x = b.bits[i]
		}
		if i < len(other.bits) {
			y = other.bits[i]
		}
		if x != y {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of the set.
func (b *BitSet) Copy() *BitSet {
	out := &BitSet{bits: make([]uint64, len(b.bits))}
	copy(out.bits, b.bits)
	return out
}

// grow expands the bitset to n words.
// Callers guarantee n > len(b.bits).
func (b *BitSet) grow(n int) {
	newBits := make([]uint64, n)
	copy(newBits, b.bits)
	b.bits = newBits
}
