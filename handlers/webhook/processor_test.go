package webhook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abelzimusi/order-verification-app/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sentMessage struct {
	Recipient string
	Text      string
	Once      bool
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *fakeMessenger) Send(_ context.Context, recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{Recipient: recipient, Text: text})
	return m.err
}

func (m *fakeMessenger) SendOnce(_ context.Context, recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{Recipient: recipient, Text: text, Once: true})
	return m.err
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

type fakeOCR struct {
	text string
	err  error
}

func (o *fakeOCR) ExtractText(context.Context, string) (string, error) {
	return o.text, o.err
}

type fakeFetcher struct {
	err      error
	lastPath string
}

// Fetch writes a throwaway temp file so the slip pipeline has something to
// delete, same as the real downloader.
func (f *fakeFetcher) Fetch(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tmp, err := os.CreateTemp("", "slip-test-*.jpg")
	if err != nil {
		return "", err
	}
	tmp.Close()
	f.lastPath = tmp.Name()
	return tmp.Name(), nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Branch{}, &models.Order{}, &models.TransactionCode{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func seedBranches(t *testing.T, db *gorm.DB) {
	t.Helper()
	branches := []models.Branch{
		{Name: "Neshuro", PhoneNumber: "263771000001", AdminPhoneNumber: "263771000009", Group: models.GroupNgundu},
		{Name: "Ngundu", PhoneNumber: "263771000002", AdminPhoneNumber: "263771000009", Group: models.GroupNgundu},
		{Name: "Chomutobwe", PhoneNumber: "263771000003", AdminPhoneNumber: "263771000008", Group: models.GroupChomutobwe},
		{Name: "TnP", PhoneNumber: "263771000004", AdminPhoneNumber: "263771000007", Group: models.GroupTnPAndMunteeInvestments},
		{Name: "TnP And Muntee Investments", PhoneNumber: "263771000005", AdminPhoneNumber: "263771000007", Group: models.GroupTnPAndMunteeInvestments},
	}
	if err := db.Create(&branches).Error; err != nil {
		t.Fatalf("seeding branches: %v", err)
	}
}

func newTestProcessor(t *testing.T) (*Processor, *fakeMessenger) {
	t.Helper()
	db := testDB(t)
	seedBranches(t, db)
	messenger := &fakeMessenger{}
	p := NewProcessor(db, messenger, &fakeOCR{}, &fakeFetcher{}, time.UTC, nil)
	return p, messenger
}

func chatMessage(p *Processor, id, body string) message {
	return message{
		ID:   id,
		From: "263772000001@c.us",
		Type: "chat",
		Body: body,
		Time: p.now(),
	}
}

func TestNormalize(t *testing.T) {
	p, _ := newTestProcessor(t)

	tests := []struct {
		name    string
		data    models.UltraMsgData
		wantErr bool
	}{
		{"valid chat", models.UltraMsgData{ID: "m1", From: "a@c.us", Type: "chat", Body: "hello", Time: 1700000000}, false},
		{"image without body or id", models.UltraMsgData{From: "a@c.us", Type: "image", Media: "https://x/img.jpg", Time: 1700000000}, false},
		{"missing from", models.UltraMsgData{ID: "m1", Type: "chat", Body: "hello", Time: 1700000000}, true},
		{"missing time", models.UltraMsgData{ID: "m1", From: "a@c.us", Type: "chat", Body: "hello"}, true},
		{"chat without body", models.UltraMsgData{ID: "m1", From: "a@c.us", Type: "chat", Time: 1700000000}, true},
		{"chat without id", models.UltraMsgData{From: "a@c.us", Type: "chat", Body: "hello", Time: 1700000000}, true},
		{"image without media", models.UltraMsgData{ID: "m1", From: "a@c.us", Type: "image", Time: 1700000000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.normalize(models.UltraMsgWebhook{EventType: "message_received", Data: tt.data})
			if tt.wantErr && !errors.Is(err, ErrMalformedEnvelope) {
				t.Errorf("normalize() error = %v, want ErrMalformedEnvelope", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("normalize() unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeConvertsTimezone(t *testing.T) {
	db := testDB(t)
	loc, err := time.LoadLocation("Africa/Harare")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	p := NewProcessor(db, &fakeMessenger{}, &fakeOCR{}, &fakeFetcher{}, loc, nil)

	msg, err := p.normalize(models.UltraMsgWebhook{Data: models.UltraMsgData{
		ID: "m1", From: "a@c.us", Type: "chat", Body: "hello", Time: 1700000000,
	}})
	if err != nil {
		t.Fatalf("normalize() error: %v", err)
	}
	if msg.Time.Location().String() != "Africa/Harare" {
		t.Errorf("Time location = %s, want Africa/Harare", msg.Time.Location())
	}
	if msg.Time.Unix() != 1700000000 {
		t.Errorf("Time = %d, want 1700000000", msg.Time.Unix())
	}
}

func TestProcessStaleMessage(t *testing.T) {
	p, messenger := newTestProcessor(t)

	msg := chatMessage(p, "m1", "ID-0001-5\nto Jane\nNeshuro\nR100")
	msg.Time = p.now().Add(-11 * time.Minute)

	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if status != "ignored: stale message" {
		t.Errorf("status = %q", status)
	}
	if len(messenger.messages()) != 0 {
		t.Errorf("stale message must not trigger notifications")
	}
}

func TestProcessDuplicateMessageID(t *testing.T) {
	p, messenger := newTestProcessor(t)

	msg := chatMessage(p, "m1", "ID-0001-5\nto Jane\nNeshuro\nR100")
	if _, err := p.Process(context.Background(), msg); err != nil {
		t.Fatalf("first Process() error: %v", err)
	}
	firstSends := len(messenger.messages())

	var firstCount int64
	p.db.Model(&models.Order{}).Count(&firstCount)

	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("second Process() error: %v", err)
	}
	if status != "ignored: duplicate message id" {
		t.Errorf("status = %q", status)
	}

	var count int64
	p.db.Model(&models.Order{}).Count(&count)
	if count != firstCount {
		t.Errorf("redelivery created an order: %d -> %d rows", firstCount, count)
	}
	if len(messenger.messages()) != firstSends {
		t.Errorf("redelivery sent notifications")
	}
}

func TestProcessServiceEcho(t *testing.T) {
	p, _ := newTestProcessor(t)

	msg := chatMessage(p, "m1", "ID-0001-5\nto Jane\nNeshuro\nR100 "+serviceTag)
	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if status != "ignored: service echo" {
		t.Errorf("status = %q", status)
	}
}

func TestProcessUnauthorizedSender(t *testing.T) {
	db := testDB(t)
	seedBranches(t, db)
	messenger := &fakeMessenger{}
	p := NewProcessor(db, messenger, &fakeOCR{}, &fakeFetcher{}, time.UTC, []string{"263779999999@c.us"})

	msg := chatMessage(p, "m1", "ID-0001-5\nto Jane\nNeshuro\nR100")
	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if status != "ignored: unauthorized sender" {
		t.Errorf("status = %q", status)
	}
	if len(messenger.messages()) != 0 {
		t.Errorf("unauthorized sender must not trigger notifications")
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	p, _ := newTestProcessor(t)

	msg := chatMessage(p, "m1", "a voice note")
	msg.Type = "audio"
	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if status != "ignored: unsupported message type" {
		t.Errorf("status = %q", status)
	}
}

func TestProcessHelpKeyword(t *testing.T) {
	p, messenger := newTestProcessor(t)

	msg := chatMessage(p, "m1", "help")
	status, err := p.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if status != "ignored: not an order message" {
		t.Errorf("status = %q", status)
	}

	sent := messenger.messages()
	if len(sent) != 1 || !sent[0].Once {
		t.Fatalf("expected exactly one single-attempt reply, got %+v", sent)
	}
}
