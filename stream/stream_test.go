package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/sensorar/colour"
	"github.com/matt-g-everett/sensorar/registry"
	"github.com/matt-g-everett/sensorar/router"
	"github.com/matt-g-everett/sensorar/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool   { return true }
func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.MessageHandler
	published []published
	err       error
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[string]mqtt.MessageHandler)
	}
	c.handlers[topic] = callback
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	h(nil, &fakeMessage{topic: topic, payload: payload})
}

func (c *fakeClient) sent() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.published...)
}

type submissions struct {
	got []telemetry.Measurement
}

func (s *submissions) Submit(m telemetry.Measurement) bool {
	s.got = append(s.got, m)
	return true
}

func TestReadConfigDefaults(t *testing.T) {
	c, err := ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestReadConfigOverrides(t *testing.T) {
	doc := `
mqtt:
  url: tcp://broker:1883
  topics:
    telemetry: lab/telemetry
router:
  priorityDevice: 3
  options: [Temperature, Humidity]
indicator:
  easing: inOutQuad
  stops:
    - {value: 10, colour: "#0000ff"}
    - {value: 30, colour: "#ff0000"}
matching:
  legacyLightness: true
references:
  - {colour: "#00ff00", device: 7}
`
	c, err := ReadConfig(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", c.Mqtt.URL)
	assert.Equal(t, "lab/telemetry", c.Mqtt.Topics.Telemetry)
	assert.Equal(t, "sensornet/render", c.Mqtt.Topics.Events, "unset keys keep defaults")
	assert.Equal(t, 40.0, c.Router.PriorityThreshold)

	rc, err := c.RouterConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, rc.PriorityDevice)
	assert.Equal(t, []router.Option{router.OptionTemperature, router.OptionHumidity}, rc.Options)
	require.Len(t, rc.Gradient, 2)
	assert.Equal(t, "#0000ff", rc.Gradient.GetColor(0, rc.Ease).Clamped().Hex())

	refs, err := c.ReferenceColours()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, 7, refs[0].DeviceID)

	dark, light := colour.HSL{L: 0}, colour.HSL{L: 1}
	assert.Zero(t, c.Metric()(dark, light))
	c.Matching.LegacyLightness = false
	assert.Positive(t, c.Metric()(dark, light))
}

func TestReadConfigInvalid(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("mqtt: [1, 2"))
	assert.Error(t, err)

	c := DefaultConfig()
	c.Router.Options = []string{"Colour"}
	_, err = c.RouterConfig()
	assert.Error(t, err)

	c = DefaultConfig()
	c.Indicator.Easing = "bounce"
	_, err = c.RouterConfig()
	assert.Error(t, err)

	c = DefaultConfig()
	c.Indicator.Stops = []Stop{{Value: 30, Colour: "#ff0000"}, {Value: 20, Colour: "#0000ff"}}
	_, err = c.RouterConfig()
	assert.Error(t, err)

	c = DefaultConfig()
	c.References = []Reference{{Colour: "red", Device: 1}}
	_, err = c.ReferenceColours()
	assert.Error(t, err)
}

func TestRouterConfigDeduplicatesOptions(t *testing.T) {
	c := DefaultConfig()
	c.Router.Options = []string{"Humidity", "Temperature", "Humidity"}
	rc, err := c.RouterConfig()
	require.NoError(t, err)
	assert.Equal(t, []router.Option{router.OptionHumidity, router.OptionTemperature}, rc.Options)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SENSORAR_MQTT_URL", "tcp://env:1883")
	t.Setenv("SENSORAR_HTTP_ADDR", ":8080")
	c := DefaultConfig()
	c.ApplyEnv()
	assert.Equal(t, "tcp://env:1883", c.Mqtt.URL)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "sensorar", c.Mqtt.ClientID)
}

func TestControllerSerializesWork(t *testing.T) {
	reg := registry.New()
	ctl := NewController(router.New(reg, nil, router.DefaultConfig(), nil), 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctl.Run(ctx)
		close(done)
	}()

	require.True(t, ctl.Submit(telemetry.Measurement{DeviceID: 5}))
	require.Eventually(t, func() bool {
		var n int
		err := ctl.Do(ctx, func(r *router.Router) { n = r.Registry().Len() })
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	var mode router.Mode
	require.NoError(t, ctl.Do(ctx, func(r *router.Router) { mode = r.Advance() }))
	assert.Equal(t, router.TemperatureSeries, mode)

	cancel()
	<-done
	err := ctl.Do(context.Background(), func(*router.Router) {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestControllerSubmitDropsWhenFull(t *testing.T) {
	ctl := NewController(router.New(registry.New(), nil, router.DefaultConfig(), nil), 1)
	assert.True(t, ctl.Submit(telemetry.Measurement{DeviceID: 1}))
	assert.False(t, ctl.Submit(telemetry.Measurement{DeviceID: 2}))
}

func TestStreamerDecodesFrames(t *testing.T) {
	client := &fakeClient{}
	target := &submissions{}
	s := NewStreamer(client, "t", 0, target)
	require.NoError(t, s.Subscribe())

	client.deliver("t", telemetry.Measurement{DeviceID: 9, Temperature: 21.5}.Encode(1))
	client.deliver("t", []byte{1, 2, 3})

	require.Len(t, target.got, 1)
	assert.Equal(t, 9, target.got[0].DeviceID)
	assert.Equal(t, 21.5, target.got[0].Temperature)

	decoded, dropped := s.Stats()
	assert.Equal(t, uint64(1), decoded)
	assert.Equal(t, uint64(1), dropped)
}

func TestStreamerSubscribeError(t *testing.T) {
	client := &fakeClient{err: errors.New("not authorised")}
	s := NewStreamer(client, "t", 0, &submissions{})
	assert.Error(t, s.Subscribe())
}

func TestPublisherSendsJSON(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "render", 1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Publish(router.Event{DeviceID: 2, Kind: router.EventText, Text: "2\n"})
	require.Eventually(t, func() bool { return len(client.sent()) == 1 }, time.Second, 10*time.Millisecond)

	msg := client.sent()[0]
	assert.Equal(t, "render/text", msg.topic)
	var e router.Event
	require.NoError(t, json.Unmarshal(msg.payload, &e))
	assert.Equal(t, 2, e.DeviceID)
	assert.Equal(t, "2\n", e.Text)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "render", 0, 1)
	p.Publish(router.Event{Kind: router.EventText})
	p.Publish(router.Event{Kind: router.EventText})
	assert.Len(t, p.queue, 1)
}
