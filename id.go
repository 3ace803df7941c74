package mercato

import "github.com/xraph/mercato/id"

// ID is the TypeID identifier carried by journal records, checkpoints and
// purchases.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
