package audithook

// Action constants for audit events.
const (
	// Escrow actions
	ActionCompositeCreated     = "composite.created"
	ActionCompositeReleased    = "composite.released"
	ActionConstituentsReleased = "constituents.released"

	// Collection actions
	ActionCollectionCreated  = "collection.created"
	ActionCollectionExtended = "collection.extended"
	ActionCollectionUpdated  = "collection.updated"
	ActionCollectionDeleted  = "collection.deleted"

	// Settlement actions
	ActionTokensBought = "tokens.bought"
	ActionItemsBurned  = "items.burned"

	// Order actions
	ActionOrderStatusUpdated    = "order.status_updated"
	ActionOrderFulfillerUpdated = "order.fulfiller_updated"
	ActionOrderDetailsUpdated   = "order.details_updated"

	// Durability actions
	ActionCheckpointSaved = "checkpoint.saved"
)

// Resource constants for audit events.
const (
	ResourceComposite   = "composite"
	ResourceConstituent = "constituent"
	ResourceCollection  = "collection"
	ResourcePurchase    = "purchase"
	ResourceItem        = "item"
	ResourceOrder       = "order"
	ResourceCheckpoint  = "checkpoint"
)

// Category constants for audit events.
const (
	CategoryEscrow      = "escrow"
	CategoryCatalog     = "catalog"
	CategoryPayment     = "payment"
	CategoryFulfillment = "fulfillment"
	CategoryDurability  = "durability"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
