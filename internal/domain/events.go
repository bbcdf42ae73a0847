package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventCatalogLoaded   EventType = "CatalogLoaded"
	EventCatalogReloaded EventType = "CatalogReloaded"
	EventSearchServed    EventType = "SearchServed"
	EventError           EventType = "Error"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// CatalogLoadedEvent is emitted once the catalog is open and seeded
type CatalogLoadedEvent struct {
	Path  string
	Stats CatalogStats
}

func (e CatalogLoadedEvent) Type() EventType { return EventCatalogLoaded }

// CatalogReloadedEvent is emitted when the seed file changed and was re-imported
type CatalogReloadedEvent struct {
	SeedPath string
	Imported int
}

func (e CatalogReloadedEvent) Type() EventType { return EventCatalogReloaded }

// SearchServedEvent is emitted by the backend after answering a command
type SearchServedEvent struct {
	RequestID string
	Kind      string
	Query     string
	Results   int
}

func (e SearchServedEvent) Type() EventType { return EventSearchServed }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	CatalogPath string
	SeedPath    string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
