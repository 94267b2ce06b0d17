package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robotalks/siobridge/pkg/telemetry"
)

// Topic suffixes under <prefix><type>/<id>/.
const (
	EventsTopic = "events"
	MetaTopic   = "meta"
)

// DefaultPublishTimeout bounds the wait for a publish acknowledgement.
const DefaultPublishTimeout = time.Second

// Sink publishes telemetry packets for one bridge. The meta topic is
// retained while connected and cleared by the will when the bridge drops.
type Sink struct {
	Queue          *Queue
	Info           telemetry.BridgeInfo
	PublishTimeout time.Duration

	metaJSON []byte
}

// EventsTopicOf returns the events topic of a bridge.
func EventsTopicOf(ref telemetry.BridgeRef) string {
	return ref.Name() + "/" + EventsTopic
}

// MetaTopicOf returns the meta topic of a bridge.
func MetaTopicOf(ref telemetry.BridgeRef) string {
	return ref.Name() + "/" + MetaTopic
}

// NewSink creates a Sink.
func NewSink(brokerURL string, info telemetry.BridgeInfo) (*Sink, error) {
	if !info.Ref.IsValid() {
		return nil, fmt.Errorf("bridge type and id must be specified")
	}
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopicOf(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("siobridge:" + info.Ref.Name())
	}
	s := &Sink{
		Queue:          NewQueue(opts, topicPrefix),
		Info:           info,
		PublishTimeout: DefaultPublishTimeout,
		metaJSON:       meta,
	}
	s.Queue.OnConnect = func(q *Queue) {
		q.PubWith(MetaTopicOf(s.Info.Ref), s.metaJSON, 1, true)
	}
	return s, nil
}

// WritePacket implements telemetry.PacketWriter.
func (s *Sink) WritePacket(pkt []byte) error {
	token := s.Queue.Pub(EventsTopicOf(s.Info.Ref), pkt)
	if !token.WaitTimeout(s.PublishTimeout) {
		return fmt.Errorf("publish %s: timeout", EventsTopicOf(s.Info.Ref))
	}
	return token.Error()
}

// Name implements framework.Named.
func (s *Sink) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
func (s *Sink) Run(ctx context.Context) error {
	s.Queue.Connect()
	<-ctx.Done()
	s.Queue.PubWith(MetaTopicOf(s.Info.Ref), nil, 1, true).WaitTimeout(s.PublishTimeout)
	s.Queue.Close()
	return ctx.Err()
}
