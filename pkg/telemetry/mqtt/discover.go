package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/siobridge/pkg/telemetry"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// RefFromTopic extracts the bridge from a topic <type>/<id>/<suffix>.
func RefFromTopic(topic, suffix string) (telemetry.BridgeRef, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != suffix {
		return telemetry.BridgeRef{}, false
	}
	ref := telemetry.BridgeRef{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// InfoFromMeta decodes a retained meta message. Empty payload means the
// bridge is gone.
func InfoFromMeta(topic string, payload []byte) (info telemetry.BridgeInfo, ok bool) {
	if info.Ref, ok = RefFromTopic(topic, MetaTopic); !ok || len(payload) == 0 {
		return info, false
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: bad meta: %v", topic, err)
	}
	return info, true
}

// Discover collects the bridges which are currently online.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) (res []telemetry.BridgeInfo, err error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	resCh := make(chan telemetry.BridgeInfo, 1)
	q.Sub("+/+/"+MetaTopic, func(topic string, payload []byte) {
		if info, ok := InfoFromMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()

	if timeout == 0 {
		timeout = DefaultDiscoverTimeout
	}
	expired := time.After(timeout)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-expired:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}
