// Package events carries domain notifications between services, cache
// invalidation, and connected browsers. A Bus dispatches in-process; a
// RedisFanout relays the same events between API instances.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Name identifies an event kind.
type Name string

const (
	ProspectCreated      Name = "prospect.created"
	ProspectUpdated      Name = "prospect.updated"
	ProspectDeleted      Name = "prospect.deleted"
	ProspectConverted    Name = "prospect.converted"
	StudentCreated       Name = "student.created"
	StudentUpdated       Name = "student.updated"
	StudentDeleted       Name = "student.deleted"
	ClassChanged         Name = "class.changed"
	EnrollmentChanged    Name = "enrollment.changed"
	FollowUpUpdated      Name = "followup.updated"
	CommunicationUpdated Name = "communication.updated"
	PaymentChanged       Name = "payment.changed"
	ExpenditureChanged   Name = "expenditure.changed"
	ReportFinished       Name = "report.finished"
)

// Event is an immutable notification. Payload holds the JSON encoding of the
// affected entity so events survive a trip through Redis unchanged.
type Event struct {
	ID         string          `json:"id"`
	Name       Name            `json:"name"`
	OccurredAt time.Time       `json:"occurredAt"`
	Source     string          `json:"source,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// New builds an event around payload.
func New(name Name, payload interface{}) (Event, error) {
	evt := Event{ID: uuid.NewString(), Name: name, OccurredAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", name, err)
		}
		evt.Payload = raw
	}
	return evt, nil
}

// Decode unmarshals the payload into dest.
func (e Event) Decode(dest interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.Name)
	}
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}
