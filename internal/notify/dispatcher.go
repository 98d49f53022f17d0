// Package notify drains the durable notification queue: pending rows are
// pushed to connected clients, relayed to Kafka for downstream consumers,
// and marked delivered.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/fitcoach/internal/domain"
)

// Queue is the store side of the dispatcher.
type Queue interface {
	ClaimUndelivered(ctx context.Context, batch int) ([]domain.Notification, error)
	MarkDelivered(ctx context.Context, ids []string, at time.Time) error
}

// Pusher delivers a notification to connected clients.
type Pusher interface {
	Notify(notification domain.Notification)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Dispatcher polls the queue and delivers pending notifications.
type Dispatcher struct {
	queue            Queue
	pusher           Pusher
	producer         messageWriter
	topic            string
	pollInterval     time.Duration
	batchSize        int
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(queue Queue, pusher Pusher, producer messageWriter, topic string, pollInterval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		queue:            queue,
		pusher:           pusher,
		producer:         producer,
		topic:            topic,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("notify dispatcher error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// processBatch claims a batch, pushes each notification live, relays the
// batch to Kafka, and marks everything delivered. The live push is
// at-most-once; a relay failure is logged and does not block the mark, the
// persisted row remains the durable copy clients poll for.
func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	pending, err := d.queue.ClaimUndelivered(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	defer batchDuration.Observe(time.Since(start).Seconds())

	records := make([]kafka.Message, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, notification := range pending {
		d.pusher.Notify(notification)

		payload, err := json.Marshal(notification)
		if err != nil {
			log.Printf("notify: marshal %s: %v", notification.ID, err)
			ids = append(ids, notification.ID)
			continue
		}
		records = append(records, kafka.Message{
			Key:   []byte(notification.UserID),
			Value: payload,
			Time:  time.Now().UTC(),
		})
		ids = append(ids, notification.ID)
	}

	if len(records) > 0 {
		if err := d.producer.WriteMessages(ctx, d.topic, records...); err != nil {
			log.Printf("notify: kafka relay failure: %v", err)
			relayFailures.Add(float64(len(records)))
		}
	}

	if err := d.queue.MarkDelivered(ctx, ids, time.Now().UTC()); err != nil {
		return err
	}
	dispatchedCounter.Add(float64(len(ids)))
	return nil
}
