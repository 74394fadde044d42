package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopcore/shopcore/internal/messaging"
	"github.com/shopcore/shopcore/internal/models"
)

const (
	OrderCreatedQueue   = "order.created"
	OrderCancelledQueue = "order.cancelled"
)

// OrderPublisher emits order lifecycle events after the corresponding write
// has committed. Publishing is best-effort: a failure is the caller's to log,
// never to roll back on.
type OrderPublisher struct {
	mq *messaging.RabbitMQ
}

func NewOrderPublisher(mq *messaging.RabbitMQ) (*OrderPublisher, error) {
	for _, queue := range []string{OrderCreatedQueue, OrderCancelledQueue} {
		if err := mq.DeclareQueue(queue); err != nil {
			return nil, err
		}
	}

	return &OrderPublisher{mq: mq}, nil
}

// PublishOrderCreated publishes an order.created event
func (p *OrderPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Items:       itemEvents(order),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, OrderCreatedQueue, data)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *OrderPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, actorID string) error {
	event := models.OrderCancelledEvent{
		OrderID: order.ID,
		ActorID: actorID,
		Items:   itemEvents(order),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, OrderCancelledQueue, data)
}

func itemEvents(order *models.Order) []models.OrderItemEvent {
	items := make([]models.OrderItemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}
