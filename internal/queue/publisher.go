package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/parkwise/parkwise/internal/model"
)

const (
	sessionStartedQueue = "session.started"
	sessionClosedQueue  = "session.closed"
)

// Publisher emits session lifecycle events to RabbitMQ.  It dials per
// publish so a broker restart never leaves it holding a dead
// connection, and it never panics or surfaces errors to the request
// flow; failures are logged and the message is dropped.
type Publisher struct {
	url string
	log *zap.SugaredLogger
}

// NewPublisher returns a Publisher for the given AMQP URL.
func NewPublisher(url string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// SessionStarted publishes a SessionStartedEvent.
func (p *Publisher) SessionStarted(ctx context.Context, sess *model.Session, spot *model.Spot) {
	ev := SessionStartedEvent{
		SessionID: sess.ID,
		GarageID:  sess.GarageID,
		Plate:     sess.Plate,
		SpotID:    sess.SpotID,
		SpotType:  string(spot.Type),
		Floor:     spot.Floor,
		RateType:  string(sess.RateType),
		EntryTime: sess.EntryTime.Format(time.RFC3339),
	}
	if sess.ExpectedExit != nil {
		ev.ExpectedExit = sess.ExpectedExit.Format(time.RFC3339)
	}
	p.publish(ctx, sessionStartedQueue, ev)
}

// SessionClosed publishes a SessionClosedEvent.
func (p *Publisher) SessionClosed(ctx context.Context, sess *model.Session, spot *model.Spot) {
	ev := SessionClosedEvent{
		SessionID: sess.ID,
		GarageID:  sess.GarageID,
		Plate:     sess.Plate,
		SpotID:    sess.SpotID,
		RateType:  string(sess.RateType),
		EntryTime: sess.EntryTime.Format(time.RFC3339),
	}
	if sess.ExitTime != nil {
		ev.ExitTime = sess.ExitTime.Format(time.RFC3339)
	}
	if sess.DurationMinutes != nil {
		ev.DurationMinutes = *sess.DurationMinutes
	}
	p.publish(ctx, sessionClosedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warnw("rabbitmq dial failed", "queue", queueName, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warnw("rabbitmq channel open failed", "queue", queueName, "error", err)
		return
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warnw("rabbitmq queue declare failed", "queue", queueName, "error", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warnw("event marshal failed", "queue", queueName, "error", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.Warnw("rabbitmq publish failed", "queue", queueName, "error", err)
	}
}
