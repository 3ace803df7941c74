package types

// BpsDenominator is the number of basis points in 100%.
const BpsDenominator = 10000

// Bps is a share expressed in basis points (1 bps = 0.01%).
type Bps uint32

// Valid reports whether the share is at most 100%.
func (b Bps) Valid() bool { return b <= BpsDenominator }

// Of returns the share of a, truncated toward zero.
func (b Bps) Of(a Amount) Amount {
	return a.MulAmount(NewAmount(int64(b))).QuoTrunc(NewAmount(BpsDenominator))
}

// Complement returns 100% minus b.
func (b Bps) Complement() Bps {
	if b >= BpsDenominator {
		return 0
	}
	return BpsDenominator - b
}

// Percent converts a whole percentage to basis points.
func Percent(p uint32) Bps { return Bps(p * 100) }
