package stats

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status events.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Button        string       `json:"button"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counters      CountersJSON `json:"counters"`
	MailboxDrops  int64        `json:"mailbox_drops"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of the pipeline counters.
type CountersJSON struct {
	RawTransitions int64 `json:"raw_transitions"`
	SettlePasses   int64 `json:"settle_passes"`
	PressCount     int64 `json:"press_count"`
	LastEventNs    int64 `json:"last_event_ns"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Line        int    `json:"line"`
	QuietMs     int64  `json:"quiet_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := "RELEASED"
	if snap.Pressed {
		state = "PRESSED"
	}

	return StatusInner{
		Button:        state,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			RawTransitions: snap.Counters.RawTransitions,
			SettlePasses:   snap.Counters.SettlePasses,
			PressCount:     snap.Counters.Presses,
			LastEventNs:    snap.Counters.LastEventNanos,
		},
		MailboxDrops: snap.MailboxDrops,
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Line:        snap.Config.Line,
			QuietMs:     snap.Config.QuietMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
