// Package consumer turns catalog change events into index invalidations,
// taking over the role of the catalog's save/delete hooks: any create, update
// or delete of a product, variant or SKU marks the whole index stale.
package consumer

import (
	"context"
	"fmt"

	"github.com/88clipon/saleor/pkg/kafka"
	"github.com/88clipon/saleor/pkg/logger"
)

// CatalogEvent is the change notification published by the catalog side.
type CatalogEvent struct {
	// Type is e.g. "product.created", "variant.updated",
	// "product.deleted". Every type invalidates; the index rebuilds
	// wholesale, never per record.
	Type     string `json:"type"`
	SourceID string `json:"source_id,omitempty"`
}

// Invalidator is the slice of the cache manager the consumer needs.
type Invalidator interface {
	Invalidate(origin string)
}

// Handler returns a kafka.MessageHandler that invalidates the index for each
// decoded catalog event.
func Handler(inv Invalidator) kafka.MessageHandler {
	log := logger.WithComponent("catalog-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[CatalogEvent](value)
		if err != nil {
			return err
		}
		if event.Type == "" {
			return fmt.Errorf("catalog event missing type (key=%s)", key)
		}
		log.Info("catalog change received", "type", event.Type, "source_id", event.SourceID)
		inv.Invalidate("consumer")
		return nil
	}
}
