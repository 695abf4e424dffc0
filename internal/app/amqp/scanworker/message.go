package scanworker

import "time"

const ScanRequestedEventName = "feed/scan.requested"

type ScanRequestedEventData struct {
	Channel string `json:"channel"`
}

type ScanRequestedEnvelope struct {
	EventName string                 `json:"event_name"`
	EventID   string                 `json:"event_id"`
	TS        time.Time              `json:"ts"`
	Data      ScanRequestedEventData `json:"data"`
}
