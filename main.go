package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/matt-g-everett/sensorar/api"
	"github.com/matt-g-everett/sensorar/chart"
	"github.com/matt-g-everett/sensorar/registry"
	"github.com/matt-g-everett/sensorar/router"
	"github.com/matt-g-everett/sensorar/stream"
)

type app struct {
	Config     stream.Config
	Client     mqtt.Client
	Controller *stream.Controller
	Streamer   *stream.Streamer
	Publisher  *stream.Publisher
	Charts     *chart.Renderer
	Hub        *api.Hub
	Api        *api.Api
}

func newApp() *app {
	a := new(app)
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Println("Connected")
	if err := a.Streamer.Subscribe(); err != nil {
		log.Printf("subscribe: %v", err)
	}
}

func (a *app) readConfig(configPath string) {
	f, err := os.Open(configPath)
	if os.IsNotExist(err) {
		log.Printf("%s not found, using defaults", configPath)
		a.Config = stream.DefaultConfig()
		return
	}
	if err != nil {
		panic(err)
	}
	defer f.Close()

	a.Config, err = stream.ReadConfig(f)
	if err != nil {
		panic(err)
	}
}

func (a *app) build() {
	rc, err := a.Config.RouterConfig()
	if err != nil {
		panic(err)
	}
	refs, err := a.Config.ReferenceColours()
	if err != nil {
		panic(err)
	}

	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID + "-" + uuid.New().String()[:8]).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	a.Publisher = stream.NewPublisher(a.Client, a.Config.Mqtt.Topics.Events, a.Config.Mqtt.QoS, 256)
	a.Charts = chart.NewRenderer(16)
	a.Hub = api.NewHub()

	sink := router.MultiSink{a.Publisher, a.Charts, a.Hub}
	a.Controller = stream.NewController(router.New(registry.New(), sink, rc, refs), 256)
	a.Streamer = stream.NewStreamer(a.Client, a.Config.Mqtt.Topics.Telemetry, a.Config.Mqtt.QoS, a.Controller)
	a.Api = api.NewApi(a.Controller, a.Charts, a.Hub, a.Config.Metric(), a.Config.HTTP.Static)
}

func (a *app) run(ctx context.Context) {
	go a.Controller.Run(ctx)
	go a.Publisher.Run(ctx)
	go a.Charts.Run(ctx)
	go a.Hub.Run(ctx)

	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	defer a.Client.Disconnect(250)

	if err := a.Api.Serve(ctx, a.Config.HTTP.Addr); err != nil {
		log.Printf("http: %v", err)
	}
}

func main() {
	// mqtt.DEBUG = log.New(os.Stdout, "", 0)
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	flag.Parse()

	// Read the config
	a := newApp()
	a.readConfig(*configPath)
	a.Config.ApplyEnv()
	log.Printf("Broker: %s, telemetry: %s, events: %s",
		a.Config.Mqtt.URL, a.Config.Mqtt.Topics.Telemetry, a.Config.Mqtt.Topics.Events)

	a.build()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.run(ctx)
}
