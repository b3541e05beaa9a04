package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names what happened.
type Type string

const (
	ImageRenamed    Type = "image.renamed"
	ImageDeleted    Type = "image.deleted"
	FavoriteToggled Type = "favorite.toggled"
	PersonCreated   Type = "person.created"
	PersonRenamed   Type = "person.renamed"
	PersonDeleted   Type = "person.deleted"
	FacesAssigned   Type = "faces.assigned"
	FacesUnassigned Type = "faces.unassigned"
	PersonsMerged   Type = "persons.merged"
	ScanControlled  Type = "scan.controlled"
	MediaSynced     Type = "media.sync_started"
	MutationFailed  Type = "mutation.failed"
)

// EntityType names what an event is about.
type EntityType string

const (
	EntityImage  EntityType = "image"
	EntityPerson EntityType = "person"
	EntityFace   EntityType = "face"
	EntityScan   EntityType = "scan"
)

// Event records one mutation.
type Event struct {
	ID         string
	Type       Type
	EntityType EntityType
	EntityID   string
	Timestamp  time.Time
	Message    string
	Metadata   map[string]string
}

// New builds an event with a fresh id and the current time.
func New(typ Type, entity EntityType, entityID, message string) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       typ,
		EntityType: entity,
		EntityID:   entityID,
		Timestamp:  time.Now().UTC(),
		Message:    message,
	}
}

// With adds a metadata pair and returns e.
func (e *Event) With(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}
