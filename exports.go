package mercato

import "github.com/xraph/mercato/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Bps is re-exported from types package.
type Bps = types.Bps

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	Units       = types.Units
	ParseAmount = types.ParseAmount
	ParseUnits  = types.ParseUnits
	Percent     = types.Percent
	Sum         = types.Sum
	Zero        = types.Zero
)
