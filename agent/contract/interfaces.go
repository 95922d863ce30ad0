package contract

import "context"

// Completer generates text for a prompt. Implementations may fail transiently.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

type Specialist interface {
	Run(ctx context.Context, req SpecialistRequest) (SpecialistResponse, error)
}

type Registry interface {
	Flight() Specialist
	Hotel() Specialist
}

// HistoryRetriever ranks past transcript notes by similarity to a query.
type HistoryRetriever interface {
	SimilaritySearch(ctx context.Context, userID string, query string, k int) ([]string, error)
	Remember(ctx context.Context, note Note) error
}

type CatalogReader interface {
	Snapshot(ctx context.Context, domain Domain, limit int) ([]CatalogItem, error)
}

// ContextProvider is everything a domain agent reads before calling the model.
type ContextProvider interface {
	HistoryRetriever
	CatalogReader
}

type Inventory interface {
	// DecrementIfAvailable atomically takes one unit when the count is positive.
	// It reports false, with a nil error, when the item had nothing left.
	DecrementIfAvailable(ctx context.Context, domain Domain, itemID string) (bool, error)
	Increment(ctx context.Context, domain Domain, itemID string) error
}

type BookingStore interface {
	Insert(ctx context.Context, rec BookingRecord) (string, error)
	// FindByActionID returns nil, nil when no booking carries the action id.
	FindByActionID(ctx context.Context, actionID string) (*BookingRecord, error)
}

type BookingEvents interface {
	BookingConfirmed(ctx context.Context, rec BookingRecord) error
}
