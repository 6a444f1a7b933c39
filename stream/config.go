package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/sensorar/colour"
	"github.com/matt-g-everett/sensorar/router"
	"github.com/matt-g-everett/sensorar/util"
	"gopkg.in/yaml.v2"
)

// Stop is one indicator gradient keypoint.
type Stop struct {
	Value  float64 `yaml:"value"`
	Colour string  `yaml:"colour"`
}

// Reference is a configured marker colour.
type Reference struct {
	Colour string `yaml:"colour"`
	Device int    `yaml:"device"`
}

type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientId"`
		QoS      byte   `yaml:"qos"`
		Topics   struct {
			Telemetry string `yaml:"telemetry"`
			Events    string `yaml:"events"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	HTTP struct {
		Addr   string `yaml:"addr"`
		Static string `yaml:"static"`
	} `yaml:"http"`
	Router struct {
		PriorityDevice    int      `yaml:"priorityDevice"`
		PriorityThreshold float64  `yaml:"priorityThreshold"`
		BlobThreshold     float64  `yaml:"blobThreshold"`
		ChartRefreshTicks int      `yaml:"chartRefreshTicks"`
		Options           []string `yaml:"options"`
	} `yaml:"router"`
	Indicator struct {
		Easing string `yaml:"easing"`
		Stops  []Stop `yaml:"stops"`
	} `yaml:"indicator"`
	Matching struct {
		LegacyLightness bool `yaml:"legacyLightness"`
	} `yaml:"matching"`
	References []Reference `yaml:"references"`
}

// DefaultConfig returns the configuration used when a key is not set.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.ClientID = "sensorar"
	c.Mqtt.Topics.Telemetry = "sensornet/telemetry"
	c.Mqtt.Topics.Events = "sensornet/render"
	c.HTTP.Addr = ":3000"
	c.HTTP.Static = "client/dist"

	rc := router.DefaultConfig()
	c.Router.PriorityDevice = rc.PriorityDevice
	c.Router.PriorityThreshold = rc.PriorityThreshold
	c.Router.BlobThreshold = rc.BlobThreshold
	c.Router.ChartRefreshTicks = rc.ChartRefreshTicks

	c.Indicator.Easing = "linear"
	c.References = []Reference{
		{Colour: "#ff0000", Device: 1},
		{Colour: "#ff2a00", Device: 3},
	}
	return c
}

// ReadConfig decodes YAML from r over the defaults.
func ReadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides connection settings from the environment.
func (c *Config) ApplyEnv() {
	c.Mqtt.URL = util.GetEnv("SENSORAR_MQTT_URL", c.Mqtt.URL)
	c.Mqtt.Username = util.GetEnv("SENSORAR_MQTT_USERNAME", c.Mqtt.Username)
	c.Mqtt.Password = util.GetEnv("SENSORAR_MQTT_PASSWORD", c.Mqtt.Password)
	c.HTTP.Addr = util.GetEnv("SENSORAR_HTTP_ADDR", c.HTTP.Addr)
}

// RouterConfig builds the router settings.
func (c Config) RouterConfig() (router.Config, error) {
	rc := router.DefaultConfig()
	rc.PriorityDevice = c.Router.PriorityDevice
	rc.PriorityThreshold = c.Router.PriorityThreshold
	rc.BlobThreshold = c.Router.BlobThreshold
	rc.ChartRefreshTicks = c.Router.ChartRefreshTicks

	seen := make(map[router.Option]bool)
	for _, name := range c.Router.Options {
		o, err := router.ParseOption(name)
		if err != nil {
			return rc, err
		}
		if seen[o] {
			continue
		}
		seen[o] = true
		rc.Options = append(rc.Options, o)
	}

	ease, err := util.Easing(c.Indicator.Easing)
	if err != nil {
		return rc, err
	}
	rc.Ease = ease

	if len(c.Indicator.Stops) > 0 {
		rc.Gradient = make(colour.GradientTable, len(c.Indicator.Stops))
		for i, s := range c.Indicator.Stops {
			col, err := colorful.Hex(s.Colour)
			if err != nil {
				return rc, fmt.Errorf("indicator stop %d: %w", i, err)
			}
			if i > 0 && s.Value <= c.Indicator.Stops[i-1].Value {
				return rc, fmt.Errorf("indicator stop %d: values must ascend", i)
			}
			rc.Gradient[i].Value = s.Value
			rc.Gradient[i].Colour = col
		}
	}
	return rc, nil
}

// ReferenceColours parses the configured marker colours.
func (c Config) ReferenceColours() ([]colour.Reference, error) {
	refs := make([]colour.Reference, 0, len(c.References))
	for _, r := range c.References {
		col, err := colorful.Hex(r.Colour)
		if err != nil {
			return nil, fmt.Errorf("reference for device %d: %w", r.Device, err)
		}
		refs = append(refs, colour.Reference{Colour: col, DeviceID: r.Device})
	}
	return refs, nil
}

// Metric returns the colour distance used for marker matching.
func (c Config) Metric() colour.Metric {
	if c.Matching.LegacyLightness {
		return colour.LegacyDistance
	}
	return colour.Distance
}
