package models

// UltraMsgWebhook is the inbound payload posted by the UltraMsg gateway for
// every message event. Fields are typed rather than probed dynamically; a
// missing mandatory field is a malformed envelope, never a nil surprise.
type UltraMsgWebhook struct {
	EventType  string       `json:"event_type"`
	InstanceID string       `json:"instanceId"`
	Data       UltraMsgData `json:"data"`
}

type UltraMsgData struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Pushname string `json:"pushname"`
	Ack      string `json:"ack"`
	Type     string `json:"type"` // "chat", "image", ...
	Media    string `json:"media"`
	Time     int64  `json:"time"` // unix epoch seconds
}
