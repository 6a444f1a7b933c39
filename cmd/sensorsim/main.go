// Sensor simulator: publishes encoded telemetry frames for a handful of
// synthetic nodes. Use this for bench testing without the sensor fleet.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/matt-g-everett/sensorar/telemetry"
	"github.com/matt-g-everett/sensorar/util"
)

// node random walks the readings of one sensor.
type node struct {
	id          int
	temperature float64
	humidity    float64
	phase       float64
}

func newNode(id int, rng *rand.Rand) *node {
	return &node{
		id:          id,
		temperature: 22 + rng.Float64()*6,
		humidity:    35 + rng.Float64()*15,
		phase:       rng.Float64() * 2 * math.Pi,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// next advances the walk by one step of t seconds. Proximity swings
// through the blob threshold so indicators toggle.
func (n *node) next(t float64, rng *rand.Rand) telemetry.Measurement {
	n.temperature = clamp(n.temperature+(rng.Float64()-0.5)*0.4, 15, 35)
	n.humidity = clamp(n.humidity+(rng.Float64()-0.5)*1.0, 10, 90)
	proximity := math.Round(127.5 + 127.5*math.Sin(t/4+n.phase))

	return telemetry.Measurement{
		DeviceID:     n.id,
		Proximity:    proximity,
		Ambient:      float64(200 + rng.Intn(50)),
		Red:          float64(rng.Intn(256)),
		Green:        float64(rng.Intn(256)),
		Blue:         float64(rng.Intn(256)),
		Temperature:  math.Round(n.temperature*100) / 100,
		Pressure:     math.Round((101.3+(rng.Float64()-0.5)*0.2)*100) / 100,
		Humidity:     math.Round(n.humidity*100) / 100,
		Orientation:  telemetry.Quaternion{W: 1},
		Acceleration: telemetry.Vector{Z: -9.81},
		Magnetic:     telemetry.Vector{X: 0.2, Y: -0.1, Z: 0.45},
	}
}

func main() {
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	url := flag.String("url", util.GetEnv("SENSORAR_MQTT_URL", "tcp://localhost:1883"), "MQTT broker URL")
	topic := flag.String("topic", "sensornet/telemetry", "telemetry topic")
	count := flag.Int("nodes", 3, "number of simulated nodes")
	interval := flag.Duration("interval", 500*time.Millisecond, "time between rounds of frames")
	flag.Parse()

	options := mqtt.NewClientOptions().
		AddBroker(*url).
		SetClientID("sensorsim-" + uuid.New().String()[:8]).
		SetUsername(util.GetEnv("SENSORAR_MQTT_USERNAME", "")).
		SetPassword(util.GetEnv("SENSORAR_MQTT_PASSWORD", "")).
		SetKeepAlive(30 * time.Second)
	client := mqtt.NewClient(options)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	nodes := make([]*node, *count)
	for i := range nodes {
		nodes[i] = newNode(i+1, rng)
	}

	log.Printf("simulating %d nodes on %s every %s", *count, *topic, *interval)
	start := time.Now()
	tick := time.NewTicker(*interval)
	defer tick.Stop()

	for range tick.C {
		t := time.Since(start).Seconds()
		for _, n := range nodes {
			frame := n.next(t, rng).Encode(uint16(len(nodes)))
			token := client.Publish(*topic, 0, false, frame)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("publish node %d: %v", n.id, err)
			}
		}
	}
}
