package queue

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

const WakeupQueue = "send_wakeups"

// Publisher wakes the worker when a send is initiated, so draining starts
// immediately instead of at the next tick. Wakeups are advisory: lost or
// duplicated messages are harmless because RunOnce is idempotent.
type Publisher interface {
	PublishSendInitiated(sendID int) error
}

type wakeupPayload struct {
	SendID int `json:"send_id"`
}

// AMQPQueue publishes and consumes wakeups over RabbitMQ.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		WakeupQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) PublishSendInitiated(sendID int) error {
	body, err := json.Marshal(wakeupPayload{SendID: sendID})
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		WakeupQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// ConsumeWakeups invokes handler for every wakeup until the channel closes.
func (q *AMQPQueue) ConsumeWakeups(handler func(sendID int)) error {
	msgs, err := q.ch.Consume(
		WakeupQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		var payload wakeupPayload
		if err := json.Unmarshal(d.Body, &payload); err != nil {
			log.Println("⚠️ invalid wakeup payload:", err)
			d.Ack(false)
			continue
		}
		handler(payload.SendID)
		d.Ack(false)
	}
	return nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

// NoopPublisher is used when AMQP is not configured; the worker still makes
// progress on its periodic tick.
type NoopPublisher struct{}

func (NoopPublisher) PublishSendInitiated(sendID int) error { return nil }

// MemoryPublisher collects wakeups in memory, for tests.
type MemoryPublisher struct {
	mu      sync.Mutex
	SendIDs []int
}

func (m *MemoryPublisher) PublishSendInitiated(sendID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendIDs = append(m.SendIDs, sendID)
	return nil
}

var _ Publisher = (*AMQPQueue)(nil)
var _ Publisher = NoopPublisher{}
var _ Publisher = (*MemoryPublisher)(nil)
