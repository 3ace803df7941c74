package types

// Address identifies an actor: a wallet, a component of the engine, or a
// payment token.
type Address string

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }
