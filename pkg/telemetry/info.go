package telemetry

// BridgeRef identifies a bridge instance.
type BridgeRef struct {
	// Type is the board type.
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the topic name from ref.
func (r BridgeRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates BridgeRef is valid.
func (r BridgeRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// BridgeMeta provides metadata published alongside the events.
type BridgeMeta struct {
	Description string            `json:"description,omitempty"`
	PulseWidth  uint              `json:"pulse_width,omitempty"`
	TimeUnit    string            `json:"time_unit,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// BridgeInfo provides information of a bridge.
type BridgeInfo struct {
	Ref  BridgeRef
	Meta BridgeMeta
}
