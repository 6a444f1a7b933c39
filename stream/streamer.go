package stream

import (
	"log"
	"sync/atomic"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/sensorar/telemetry"
)

// Subscriber is the part of mqtt.Client the Streamer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Submitter accepts decoded measurements.
type Submitter interface {
	Submit(m telemetry.Measurement) bool
}

// Streamer decodes telemetry frames received over MQTT.
type Streamer struct {
	client  Subscriber
	topic   string
	qos     byte
	target  Submitter
	decoded atomic.Uint64
	dropped atomic.Uint64
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(client Subscriber, topic string, qos byte, target Submitter) *Streamer {
	s := new(Streamer)
	s.client = client
	s.topic = topic
	s.qos = qos
	s.target = target
	return s
}

// Subscribe registers for telemetry frames. Call it from the connect handler
// so the subscription survives reconnects.
func (s *Streamer) Subscribe() error {
	token := s.client.Subscribe(s.topic, s.qos, s.handleFrame)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	log.Printf("Subscribed to %s", s.topic)
	return nil
}

func (s *Streamer) handleFrame(_ mqtt.Client, msg mqtt.Message) {
	m, err := telemetry.Decode(msg.Payload())
	if err != nil {
		s.dropped.Add(1)
		log.Printf("dropping frame on %s: %v", msg.Topic(), err)
		return
	}
	s.decoded.Add(1)
	s.target.Submit(m)
}

// Stats returns the number of frames decoded and dropped.
func (s *Streamer) Stats() (decoded, dropped uint64) {
	return s.decoded.Load(), s.dropped.Load()
}
