package stream

import (
	"context"
	"encoding/json"
	"log"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/sensorar/router"
)

// Sender is the part of mqtt.Client the Publisher needs.
type Sender interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher forwards render events to MQTT as JSON, one topic per event kind
// under the configured prefix.
type Publisher struct {
	client Sender
	prefix string
	qos    byte
	queue  chan router.Event
}

// NewPublisher creates a Publisher buffering up to backlog events.
func NewPublisher(client Sender, prefix string, qos byte, backlog int) *Publisher {
	p := new(Publisher)
	p.client = client
	p.prefix = prefix
	p.qos = qos
	p.queue = make(chan router.Event, backlog)
	return p
}

// Publish queues e, dropping it when the queue is full.
func (p *Publisher) Publish(e router.Event) {
	select {
	case p.queue <- e:
	default:
		log.Printf("dropping %s event for device %d: publisher queue full", e.Kind, e.DeviceID)
	}
}

// Topic returns the topic events of kind are sent to.
func (p *Publisher) Topic(kind router.EventKind) string {
	return p.prefix + "/" + string(kind)
}

// Run sends queued events until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case e := <-p.queue:
			p.send(e)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) send(e router.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Printf("encode %s event: %v", e.Kind, err)
		return
	}
	token := p.client.Publish(p.Topic(e.Kind), p.qos, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("publish %s event: %v", e.Kind, err)
	}
}
