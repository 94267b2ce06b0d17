package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/robotalks/siobridge/pkg/link"
	"github.com/robotalks/siobridge/pkg/telemetry"
	"github.com/robotalks/siobridge/pkg/telemetry/mqtt"
	"github.com/robotalks/siobridge/pkg/telemetry/stream"
	"github.com/robotalks/siobridge/pkg/telemetry/websocket"
)

var (
	mqttURL    string
	wsAddr     string
	serialPort string
	serialBaud = link.DefaultBaud
	eventsFile string
	bridgeRef  string
	listOnly   bool
)

func init() {
	mqttURL = os.Getenv("SIOBRIDGE_MQTT_URL")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Bridge websocket address host:port.")
	flag.StringVar(&serialPort, "serial", serialPort, "Serial device.")
	flag.IntVar(&serialBaud, "baud", serialBaud, "Serial baud rate.")
	flag.StringVar(&eventsFile, "events-file", eventsFile, "Recorded events file.")
	flag.StringVar(&bridgeRef, "bridge", bridgeRef, "Only monitor TYPE/ID over MQTT.")
	flag.BoolVar(&listOnly, "list", listOnly, "List bridges online over MQTT.")
}

func printPacket(source string, pkt []byte) {
	msg, seq, err := telemetry.DecodePacket(pkt)
	if err != nil {
		log.Printf("%s: bad message: %v", source, err)
		return
	}
	log.Printf("%s: #%d %s", source, seq, telemetry.FormatMessage(msg))
}

func readAll(source string, r telemetry.PacketReader) {
	for {
		pkt, err := r.ReadPacket()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Fatalln(err)
		}
		printPacket(source, pkt)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	switch {
	case eventsFile != "":
		r, err := stream.Open(eventsFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer r.Close()
		readAll(eventsFile, r)
	case serialPort != "":
		port, err := link.OpenPort(serialPort, serialBaud)
		if err != nil {
			log.Fatalln(err)
		}
		r := link.NewReader(port)
		defer r.Close()
		readAll(serialPort, r)
	case wsAddr != "":
		r, err := websocket.Dial(wsAddr)
		if err != nil {
			log.Fatalln(err)
		}
		defer r.Close()
		readAll(wsAddr, r)
	case mqttURL != "" && listOnly:
		infoList, err := mqtt.Discover(context.Background(), mqttURL, mqtt.DefaultDiscoverTimeout)
		if err != nil {
			log.Fatalln(err)
		}
		for _, info := range infoList {
			fmt.Printf("%s: %s (W=%d %s)\n", info.Ref.Name(), info.Meta.Description, info.Meta.PulseWidth, info.Meta.TimeUnit)
		}
	case mqttURL != "":
		filter := "+/+"
		if bridgeRef != "" {
			filter = bridgeRef
		}
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			log.Fatalln(err)
		}
		q.Sub(filter+"/"+mqtt.MetaTopic, func(topic string, payload []byte) {
			if len(payload) == 0 {
				log.Printf("%s: gone", strings.TrimSuffix(topic, "/"+mqtt.MetaTopic))
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		})
		q.Sub(filter+"/"+mqtt.EventsTopic, printPacket)
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			log.Fatalln(token.Error())
		}
		<-(chan struct{})(nil)
	default:
		log.Fatalln("one of -mqtt, -ws, -serial or -events-file is required")
	}
}
