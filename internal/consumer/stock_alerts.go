package consumer

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/models"
)

// StockAlertConsumer watches order.created events and flags products whose
// stock has fallen to the reorder threshold. Reporting only; the order path
// already deducted stock before the event was published.
type StockAlertConsumer struct {
	ledger *inventory.Ledger
}

func NewStockAlertConsumer(ledger *inventory.Ledger) *StockAlertConsumer {
	return &StockAlertConsumer{ledger: ledger}
}

// ProcessOrderCreated handles order.created events
func (c *StockAlertConsumer) ProcessOrderCreated(ctx context.Context, messages <-chan amqp.Delivery) {
	for msg := range messages {
		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("❌ Failed to parse order.created event: %v", err)
			msg.Nack(false, false) // Don't requeue bad messages
			continue
		}

		for _, item := range event.Items {
			rec, err := c.ledger.Record(ctx, item.ProductID)
			if err != nil {
				log.Printf("⚠️ Failed to check stock for product %d: %v", item.ProductID, err)
				continue
			}

			if rec.IsLowStock() {
				log.Printf("📉 LOW STOCK: product %d at %d units (threshold %d) after order %s",
					rec.ProductID, rec.Quantity, rec.LowStockThreshold, event.OrderID)
			}
		}

		msg.Ack(false)
	}
}
