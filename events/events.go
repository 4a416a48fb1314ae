package events

import (
	"SmartRestaurant/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const DefaultExchange = "orders_topic"

// 訂單事件，下單及每次狀態變更時發送
type OrderEvent struct {
	OrderID     uint            `json:"order_id"`
	CustomerID  *uint           `json:"customer_id"`
	TableNumber string          `json:"table_number"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderEvent(order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TableNumber: order.TableNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  at.UTC(),
	}
}

func (e OrderEvent) RoutingKey() string {
	return "orders." + e.Status
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

// RabbitMQ未設定時使用
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// 連線RabbitMQ並宣告topic exchange
func Dial(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func buildPublishing(event OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal order event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: fmt.Sprintf("order-%d", event.OrderID),
		Timestamp:     event.OccurredAt,
		Headers: amqp.Table{
			"x-source": "smart-restaurant",
		},
		Body: body,
	}, nil
}

func (p *AMQPPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.RoutingKey(), err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
