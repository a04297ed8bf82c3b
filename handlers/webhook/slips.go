package webhook

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/abelzimusi/order-verification-app/models"
)

// processSlip handles an image message carrying a payment slip: download,
// OCR, code extraction, then dedup. The downloaded image is removed on every
// path, success or failure.
func (p *Processor) processSlip(ctx context.Context, msg message) (string, error) {
	path, err := p.fetcher.Fetch(ctx, msg.MediaURL)
	if err != nil {
		return "", fmt.Errorf("downloading slip image: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove slip image %s: %v", path, err)
		}
	}()

	text, err := p.ocr.ExtractText(ctx, path)
	if err != nil {
		return "", fmt.Errorf("running OCR on slip image: %w", err)
	}

	codes := extractTransactionCodes(text)
	switch {
	case len(codes) == 0:
		p.notify(ctx, msg.From, "Sorry, we could not read your payment slip. Please send a clearer photo.")
		return "slip unreadable", nil
	case len(codes) > 1:
		p.notify(ctx, msg.From, "Please send one payment slip per image.")
		return "multiple codes in slip", nil
	}
	code := codes[0]

	unlock := p.codeLocks.Lock(code)
	defer unlock()

	now := p.now()
	var rows []models.TransactionCode
	if err := p.db.Where("code = ?", code).Find(&rows).Error; err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.PhoneNumber == msg.From && now.Sub(row.Timestamp) <= codeResendGrace {
			p.notify(ctx, msg.From, fmt.Sprintf("Payment slip %s was already received from you.", code))
			return "duplicate transaction code", nil
		}
	}
	for _, row := range rows {
		if row.PhoneNumber != msg.From {
			p.notify(ctx, msg.From, fmt.Sprintf("Payment slip %s has already been submitted.", code))
			return "duplicate transaction code", nil
		}
	}

	record := models.TransactionCode{Code: code, PhoneNumber: msg.From, Timestamp: now}
	if err := p.db.Create(&record).Error; err != nil {
		return "", err
	}
	p.notify(ctx, msg.From, fmt.Sprintf("Payment slip received. Transaction code %s recorded.", code))
	return "slip recorded", nil
}

// extractTransactionCodes scans OCR text for the two code formats slips
// carry. Both scans may fire on one image; duplicates collapse, distinct
// results mean more than one slip was photographed.
func extractTransactionCodes(text string) []string {
	var codes []string
	add := func(raw string) {
		code := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), ":"))
		if code == "" {
			return
		}
		for _, existing := range codes {
			if existing == code {
				return
			}
		}
		codes = append(codes, code)
	}

	if i := strings.Index(text, "TRACE:"); i >= 0 {
		add(firstLine(text[i+len("TRACE:"):]))
	}
	if i := strings.Index(text, "Transaction ID"); i >= 0 {
		add(firstLine(text[i+len("Transaction ID"):]))
	}
	return codes
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "\r")
}
