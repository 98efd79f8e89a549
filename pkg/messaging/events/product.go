package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalogdesk/pkg/messaging"
)

// ProductChangedEvent is published after a product was added, updated or deleted.
type ProductChangedEvent struct {
	Kind       string    `json:"kind"`
	ProductID  string    `json:"product_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ProductChangedEvent) Subject() string {
	switch e.Kind {
	case "added":
		return messaging.ProductsAddedSubject
	case "updated":
		return messaging.ProductsUpdatedSubject
	default:
		return messaging.ProductsDeletedSubject
	}
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
