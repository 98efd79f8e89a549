// Package messaging defines the broker-agnostic event publishing contract.
package messaging

import (
	"context"
)

const (
	ProductsAddedSubject   = "catalog.products.added"
	ProductsUpdatedSubject = "catalog.products.updated"
	ProductsDeletedSubject = "catalog.products.deleted"
	// ProductsSubjects matches every product subject, used when declaring the stream.
	ProductsSubjects = "catalog.products.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
