// Package sse implements Server-Sent Events for book identity changes.
package sse

import (
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/bookid-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookCreated represents a book creation event.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a book metadata update event.
	EventBookUpdated EventType = "book.updated"
	// EventBookMerged represents a completed merge. The source book is retired.
	EventBookMerged EventType = "book.merged"

	// EventEditionAdded represents an ISBN attached to a book.
	EventEditionAdded EventType = "edition.added"
	// EventEditionRemoved represents an ISBN detached from a book.
	EventEditionRemoved EventType = "edition.removed"

	// EventGroupChanged represents a change of a book's group membership.
	EventGroupChanged EventType = "group.changed"

	// EventReportCreated represents a new duplicate report.
	EventReportCreated EventType = "report.created"
	// EventReportClosed represents a report being resolved or rejected.
	EventReportClosed EventType = "report.closed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's clients. Empty broadcasts.
	UserID string `json:"-"`
}

func newEvent(t EventType, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// BookEventData is the data payload for book events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// MergeEventData is the data payload for merge events.
type MergeEventData struct {
	Merge *domain.MergeRecord `json:"merge"`
}

// EditionEventData is the data payload for edition events.
type EditionEventData struct {
	Edition            *domain.Edition `json:"edition"`
	PreferencesCleared int             `json:"preferences_cleared,omitzero"`
}

// GroupEventData is the data payload for group events.
type GroupEventData struct {
	BookID string `json:"book_id"`
	GID    string `json:"gid"`
}

// ReportEventData is the data payload for report events.
type ReportEventData struct {
	Report *domain.DuplicateReport `json:"report"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookCreatedEvent creates a book.created event.
func NewBookCreatedEvent(book *domain.Book) Event {
	return newEvent(EventBookCreated, BookEventData{Book: book})
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(book *domain.Book) Event {
	return newEvent(EventBookUpdated, BookEventData{Book: book})
}

// NewBookMergedEvent creates a book.merged event.
func NewBookMergedEvent(rec *domain.MergeRecord) Event {
	return newEvent(EventBookMerged, MergeEventData{Merge: rec})
}

// NewEditionAddedEvent creates an edition.added event.
func NewEditionAddedEvent(e *domain.Edition) Event {
	return newEvent(EventEditionAdded, EditionEventData{Edition: e})
}

// NewEditionRemovedEvent creates an edition.removed event.
func NewEditionRemovedEvent(e *domain.Edition, preferencesCleared int) Event {
	return newEvent(EventEditionRemoved, EditionEventData{Edition: e, PreferencesCleared: preferencesCleared})
}

// NewGroupChangedEvent creates a group.changed event. An empty gid means
// the book left its group.
func NewGroupChangedEvent(bookID, gid string) Event {
	return newEvent(EventGroupChanged, GroupEventData{BookID: bookID, GID: gid})
}

// NewReportCreatedEvent creates a report.created event.
func NewReportCreatedEvent(r *domain.DuplicateReport) Event {
	return newEvent(EventReportCreated, ReportEventData{Report: r})
}

// NewReportClosedEvent creates a report.closed event.
func NewReportClosedEvent(r *domain.DuplicateReport) Event {
	return newEvent(EventReportClosed, ReportEventData{Report: r})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}
