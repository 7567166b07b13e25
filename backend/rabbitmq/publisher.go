package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nightsafe/backend/server/api"

	"github.com/apex/log"
	"github.com/streadway/amqp"
)

const publishTimeout = 10 * time.Second

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON report events to a direct exchange.
type Publisher struct {
	conn       *amqp.Connection
	channel    channel
	exchange   string
	routingKey string
	now        func() time.Time
}

// NewPublisher dials RabbitMQ and declares a durable direct exchange.
func NewPublisher(amqpURL, exchangeName, routingKey string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Infof("Publishing report events to exchange %s with routing key %s", exchangeName, routingKey)
	return newPublisher(conn, ch, exchangeName, routingKey), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange, routingKey string) *Publisher {
	return &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		now:        time.Now,
	}
}

// Publish sends a JSON message with the configured routing key.
func (p *Publisher) Publish(ctx context.Context, message interface{}) error {
	return p.PublishWithRoutingKey(ctx, p.routingKey, message)
}

func (p *Publisher) PublishWithRoutingKey(ctx context.Context, routingKey string, message interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
	}

	err = p.channel.Publish(
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing, // message
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context done while publishing message: %w", ctx.Err())
	default:
	}
	return nil
}

// ReportConfirmed announces a confirmation that changed a report.
func (p *Publisher) ReportConfirmed(ctx context.Context, reportId, userId string, res *api.ConfirmResult) error {
	return p.Publish(ctx, &api.ReportConfirmedEvent{
		ReportId:           reportId,
		UserId:             userId,
		ConfirmationsCount: res.ConfirmationsCount,
		PriorityScore:      res.PriorityScore,
		Timestamp:          p.now().UTC().Format(time.RFC3339),
	})
}

// Close closes the channel and then the connection.
func (p *Publisher) Close() error {
	var err error
	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.Errorf("Failed to close channel: %v", channelErr)
			err = channelErr
		}
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.Errorf("Failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
	}
	return err
}
