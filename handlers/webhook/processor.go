package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abelzimusi/order-verification-app/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const (
	// Webhook deliveries older than this are treated as replays and ignored.
	recentWindow = 10 * time.Minute
	// How long a message id is remembered for redelivery suppression.
	idCacheTTL = 2 * time.Minute
	// How long an extracted order number is remembered per group.
	orderCacheTTL = 2 * time.Minute
	// A sender may legitimately resend the same slip after this long.
	codeResendGrace = 24 * time.Hour

	// Appended to every outgoing order message so the gateway echoing our own
	// messages back does not trigger reprocessing.
	serviceTag = "[MWZ~ChatBotService]"

	orderMarker = "ID-"
)

// ErrMalformedEnvelope is returned when a webhook payload is missing
// mandatory fields. The handler maps it to a 400.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Messenger delivers text to a phone number through the messaging gateway.
// Send retries transient failures; SendOnce is a single low-priority attempt.
type Messenger interface {
	Send(ctx context.Context, recipient, text string) error
	SendOnce(ctx context.Context, recipient, text string) error
}

// TextExtractor runs OCR over a downloaded slip image.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// MediaFetcher downloads a media URL to a local file and returns its path.
// The caller removes the file when done.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Processor is the order-reconciliation engine. One instance is built at
// startup and shared by all in-flight webhook deliveries; everything it
// mutates is either the database or one of the two TTL caches.
type Processor struct {
	db             *gorm.DB
	messenger      Messenger
	ocr            TextExtractor
	fetcher        MediaFetcher
	loc            *time.Location
	allowedSenders map[string]struct{}

	seenMessages *cache.Cache // message id -> first seen
	recentOrders *cache.Cache // group/extracted number -> processed at
	groupLocks   *keyedMutex  // serializes allocation per branch group
	codeLocks    *keyedMutex  // serializes dedup per transaction code

	now func() time.Time
}

func NewProcessor(db *gorm.DB, messenger Messenger, ocr TextExtractor, fetcher MediaFetcher, loc *time.Location, allowedSenders []string) *Processor {
	allowed := make(map[string]struct{}, len(allowedSenders))
	for _, s := range allowedSenders {
		s = strings.TrimSpace(s)
		if s != "" {
			allowed[s] = struct{}{}
		}
	}
	return &Processor{
		db:             db,
		messenger:      messenger,
		ocr:            ocr,
		fetcher:        fetcher,
		loc:            loc,
		allowedSenders: allowed,
		seenMessages:   cache.New(idCacheTTL, 2*idCacheTTL),
		recentOrders:   cache.New(orderCacheTTL, 2*orderCacheTTL),
		groupLocks:     newKeyedMutex(),
		codeLocks:      newKeyedMutex(),
		now:            time.Now,
	}
}

// message is a normalized inbound event. Not persisted.
type message struct {
	ID       string
	From     string
	Type     string
	Body     string
	MediaURL string
	Time     time.Time
}

// normalize validates the gateway payload and converts its epoch timestamp to
// the service timezone. Image messages may omit body and id as long as a
// media URL is present; everything else must carry all mandatory fields.
func (p *Processor) normalize(payload models.UltraMsgWebhook) (message, error) {
	d := payload.Data
	if d.From == "" || d.Type == "" || d.Time == 0 {
		return message{}, fmt.Errorf("%w: missing from, type or time", ErrMalformedEnvelope)
	}
	if d.Type == "image" {
		if d.Media == "" {
			return message{}, fmt.Errorf("%w: image message without media URL", ErrMalformedEnvelope)
		}
	} else if d.Body == "" || d.ID == "" {
		return message{}, fmt.Errorf("%w: missing body or id", ErrMalformedEnvelope)
	}

	return message{
		ID:       d.ID,
		From:     d.From,
		Type:     d.Type,
		Body:     d.Body,
		MediaURL: d.Media,
		Time:     time.Unix(d.Time, 0).In(p.loc),
	}, nil
}

// Process runs one normalized message through the engine and returns a short
// status string for the webhook response. A non-nil error means an internal
// failure (500); every recognized outcome, including the ignored and
// duplicate cases, is a nil error.
func (p *Processor) Process(ctx context.Context, msg message) (string, error) {
	if len(p.allowedSenders) > 0 {
		if _, ok := p.allowedSenders[msg.From]; !ok {
			return "ignored: unauthorized sender", nil
		}
	}
	if p.now().Sub(msg.Time) > recentWindow {
		return "ignored: stale message", nil
	}
	if strings.Contains(msg.Body, serviceTag) {
		return "ignored: service echo", nil
	}
	if msg.ID != "" {
		if err := p.seenMessages.Add(msg.ID, p.now(), idCacheTTL); err != nil {
			return "ignored: duplicate message id", nil
		}
	}

	switch msg.Type {
	case "chat":
		return p.processChat(ctx, msg)
	case "image":
		return p.processSlip(ctx, msg)
	default:
		return "ignored: unsupported message type", nil
	}
}

func (p *Processor) processChat(ctx context.Context, msg message) (string, error) {
	body := strings.TrimSpace(msg.Body)
	if !hasPrefixFold(body, orderMarker) {
		if strings.EqualFold(body, "help") {
			// Low-priority acknowledgement, a lost reply here is fine.
			if err := p.messenger.SendOnce(ctx, msg.From,
				"Send an order starting with ID-, or a photo of your payment slip."); err != nil {
				log.Printf("Failed to send help reply to %s: %v", msg.From, err)
			}
		}
		return "ignored: not an order message", nil
	}
	return p.processOrder(ctx, msg)
}

// notify sends a message and logs a failure without failing the request.
// Order and transaction-code rows already written stay written; a lost
// notification is never a reason to roll them back.
func (p *Processor) notify(ctx context.Context, recipient, text string) {
	if err := p.messenger.Send(ctx, recipient, text); err != nil {
		log.Printf("Failed to notify %s: %v", recipient, err)
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
