package id

// MaxBatch is the largest number of identifiers one NextN call may issue.
// Mint paths reject larger amounts before allocating.
const MaxBatch = 1 << 20

// Sequence allocates strictly increasing u64 identifiers starting at 1.
// Zero is never issued; it means "none" wherever an id is optional.
//
// A Sequence is not safe for concurrent use. Owners serialize access.
type Sequence struct {
	last uint64
}

// NewSequence returns a sequence whose last issued value is last.
func NewSequence(last uint64) *Sequence {
	return &Sequence{last: last}
}

// Next issues the next identifier.
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// NextN issues n consecutive identifiers in ascending order. Callers bound
// n by MaxBatch.
func (s *Sequence) NextN(n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = s.Next()
	}
	return ids
}

// Peek returns the identifier the next call to Next would issue.
func (s *Sequence) Peek() uint64 { return s.last + 1 }

// Last returns the most recently issued identifier, or 0.
func (s *Sequence) Last() uint64 { return s.last }
