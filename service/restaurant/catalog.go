package restaurant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sergen116/food-ordering-system/kafka"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// topicRestaurant is the `restaurant` read-model topic (SPEC_FULL.md §12)
// Order's restaurant replica consumes to keep its local snapshot current.
const topicRestaurant = "restaurant"

// Catalog is the catalog-management surface: it owns a restaurant's
// products outside the saga entirely (no outbox row, no dedupe key — a
// restaurant operator editing their own menu is not at-least-once
// redelivered like a saga message). A direct publish after commit is
// sufficient because the `restaurant` topic's only consumer upserts by id,
// which is naturally idempotent under redelivery or retry.
type Catalog struct {
	repo     IRepo
	producer *kafka.Producer
	log      *logrus.Entry
}

func NewCatalog(repo IRepo, producer *kafka.Producer, log *logrus.Entry) *Catalog {
	return &Catalog{repo: repo, producer: producer, log: log.WithField("component", "restaurant_catalog")}
}

// PublishCatalog creates or replaces rest's catalog and publishes the
// resulting snapshot to the `restaurant` topic, keyed by restaurant id.
func (c *Catalog) PublishCatalog(ctx context.Context, rest *Restaurant) error {
	if err := c.repo.Upsert(ctx, rest); err != nil {
		return err
	}

	model := toRestaurantModel(rest)
	payload, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("restaurant: marshal catalog snapshot: %w", err)
	}

	if err := c.producer.Publish(ctx, topicRestaurant, rest.ID, payload); err != nil {
		c.log.WithError(err).WithField("restaurant_id", rest.ID).Error("failed to publish catalog snapshot")
		return err
	}
	return nil
}

func toRestaurantModel(rest *Restaurant) saga_event.RestaurantModel {
	products := make([]saga_event.RestaurantProductModel, len(rest.Products))
	for i, p := range rest.Products {
		products[i] = saga_event.RestaurantProductModel{ID: p.ID, Name: p.Name, Price: p.Price}
	}
	return saga_event.RestaurantModel{ID: rest.ID, Active: rest.Active, Products: products}
}
