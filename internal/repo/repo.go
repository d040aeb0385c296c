// Package repo stores the shop's models as JSON documents in a docstore.Store.
// Store sentinels (docstore.ErrNotFound, ErrAlreadyExists, ErrVersionConflict)
// are returned wrapped so callers can match them with errors.Is.
package repo

import (
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
)

const (
	CollectionCatalog = "catalog"
	CollectionBaskets = "baskets"
	CollectionOrders  = "orders"
)

// Collections lists every collection the shop writes to.
var Collections = []string{CollectionCatalog, CollectionBaskets, CollectionOrders}

func encode(key, partition string, v any) (docstore.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return docstore.Document{Key: key, Partition: partition, Data: data}, nil
}

func decode(doc docstore.Document, v any) error {
	if err := json.Unmarshal(doc.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", doc.Key, err)
	}
	return nil
}
