// Package events carries reservation state changes over an AMQP topic
// exchange and consumes payment outcomes from one.
package events

import (
	"context"
	"encoding/json"

	"washbook/internal/domain/reservation"
	"washbook/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes ReservationStateChanged events to a durable topic
// exchange. Routing key is reservation.state_changed.<new_status> so
// consumers (notifications, reporting) can subscribe per transition.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errs.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errs.Wrap(err, "declare exchange")
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishStateChanged(ctx context.Context, evt reservation.StateChanged) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errs.Wrap(err, "marshal state change")
	}
	key := "reservation.state_changed." + evt.NewStatus.String()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ReservationID.String(),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
