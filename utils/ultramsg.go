package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const sendRetries = 3

// UltraMsgClient sends WhatsApp text messages through the UltraMsg gateway.
type UltraMsgClient struct {
	APIBaseURL string
	InstanceID string
	Token      string

	httpClient *http.Client
	retryDelay time.Duration
}

func NewUltraMsgClient() *UltraMsgClient {
	base := os.Getenv("ULTRAMSG_API_URL")
	if base == "" {
		base = "https://api.ultramsg.com"
	}
	return &UltraMsgClient{
		APIBaseURL: base,
		InstanceID: os.Getenv("ULTRAMSG_INSTANCE_ID"),
		Token:      os.Getenv("ULTRAMSG_TOKEN"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retryDelay: 2 * time.Second,
	}
}

// Send delivers a message with up to three attempts, waiting a fixed delay
// between them. The last attempt's error is returned to the caller; earlier
// failures are only logged.
func (c *UltraMsgClient) Send(ctx context.Context, recipient, text string) error {
	if skipRecipient(recipient) {
		return nil
	}

	var err error
	for attempt := 1; attempt <= sendRetries; attempt++ {
		err = c.sendChat(ctx, recipient, text)
		if err == nil {
			return nil
		}
		log.Printf("Attempt %d to send message to %s failed: %v", attempt, recipient, err)
		if attempt < sendRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// SendOnce performs a single delivery attempt. Used for low-priority
// acknowledgements where losing the message is acceptable.
func (c *UltraMsgClient) SendOnce(ctx context.Context, recipient, text string) error {
	if skipRecipient(recipient) {
		return nil
	}
	return c.sendChat(ctx, recipient, text)
}

func (c *UltraMsgClient) sendChat(ctx context.Context, recipient, text string) error {
	endpoint := fmt.Sprintf("%s/%s/messages/chat", strings.TrimRight(c.APIBaseURL, "/"), c.InstanceID)

	form := url.Values{}
	form.Set("token", c.Token)
	form.Set("to", recipient)
	form.Set("body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// "0" is the sentinel the branch registry uses for "no number on file".
func skipRecipient(recipient string) bool {
	if recipient == "" || recipient == "0" {
		log.Printf("Skipping message to empty or placeholder recipient %q", recipient)
		return true
	}
	return false
}
