// Package mercato provides a multi-party marketplace settlement engine for Go
// applications.
//
// Mercato is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Composite items minted into escrow together with their constituents
//   - Escrow release that burns and detaches items atomically
//   - Capped collections with snapshot-at-mint pricing
//   - Atomic cart settlement with a fulfiller, platform and creator split
//   - An order ledger driven by fulfillers and buyers
//   - A durable event journal and periodic state checkpoints
//   - Plugins for audit, metrics and Kafka publishing
//
// # Quick Start
//
// Create a market with your preferred store and collaborators:
//
//	import (
//	    "github.com/xraph/mercato"
//	    "github.com/xraph/mercato/store/postgres"
//	)
//
//	m, err := mercato.New(postgres.New(db),
//	    mercato.WithAuthorizer(roles),
//	    mercato.WithFulfillers(fulfillers),
//	    mercato.WithOracle(prices),
//	    mercato.WithTokens(tokens),
//	    mercato.WithCustody(ledger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the market (restores the last checkpoint, begins background workers)
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Stop()
//
// # Core Concepts
//
// Composites bundle constituents and are held by escrow from the moment
// they are minted:
//
//	minted, err := m.MintComposite(ctx, admin, composite.MintRequest{
//	    URI:               "ipfs://parent",
//	    Price:             mercato.Units(100, 18),
//	    FulfillerID:       1,
//	    ConstituentURIs:   []string{"ipfs://a", "ipfs://b"},
//	    ConstituentPrices: []mercato.Amount{mercato.Units(20, 18), mercato.Units(30, 18)},
//	})
//
// Collections are mint templates with a cap:
//
//	cid, err := m.CreateCollection(ctx, creator, 20, collection.Template{
//	    Price:       mercato.Units(100, 18),
//	    FulfillerID: 1,
//	}, false)
//
// A cart settles in one step. Every recipient is paid, every item minted
// and one order appended per line, or nothing happens at all:
//
//	p, err := m.Buy(ctx, buyer, mercato.Cart{
//	    CollectionIDs:     []uint64{cid},
//	    CollectionAmounts: []uint64{3},
//	    Token:             usdt,
//	})
//
// # Amounts
//
// USD prices carry 18 fractional digits. Token amounts are integers in the
// token's base units. Conversion truncates toward zero, and the creator's
// cut absorbs whatever the truncated fulfiller and platform cuts leave.
//
// # TypeID
//
// Journal records, checkpoints and purchases use TypeID identifiers:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41   // Event
//	ckpt_01h2xcejqtf2nbrexx3vqjhp41  // Checkpoint
//	pur_01h455vb4pex5vsknk084sn02q   // Purchase
//
// Item, collection and order ids are plain integers issued by monotonic
// per-ledger sequences and never reused.
package mercato
