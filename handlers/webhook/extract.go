package webhook

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// orderFields are the values parsed out of a free-text order message.
type orderFields struct {
	OrderNumber string // as written in the message, e.g. "99"
	Numeric     int    // parsed value of OrderNumber
	Recipient   string
	BranchHint  string
	Amount      decimal.Decimal
	IsGrocery   bool
}

// extractOrderFields parses an order message of the shape
//
//	ID-0001-99
//	to Jane
//	Neshuro
//	Total R1296
//
// Extraction fails unless order number, amount and branch hint can all be
// derived; the caller must then abort without persisting or notifying.
func extractOrderFields(body string) (orderFields, bool) {
	lines := splitLines(body)
	if len(lines) == 0 {
		return orderFields{}, false
	}

	// Order number: last dash-separated segment of the marker line.
	parts := strings.Split(lines[0], "-")
	if len(parts) < 3 {
		return orderFields{}, false
	}
	number := strings.TrimSpace(parts[len(parts)-1])
	numeric, err := strconv.Atoi(number)
	if err != nil {
		return orderFields{}, false
	}

	recipient := "Unknown Recipient"
	if len(lines) > 1 {
		r := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[1]), "to "))
		if r != "" {
			recipient = r
		}
	}

	hint := ""
	if len(lines) > 2 {
		hint = strings.TrimSpace(lines[2])
	}
	if hint == "" {
		return orderFields{}, false
	}

	isGrocery := containsFold(body, "Total") || containsFold(body, "*Groceries for*")

	amount, ok := extractAmount(lines, isGrocery)
	if !ok {
		return orderFields{}, false
	}

	return orderFields{
		OrderNumber: number,
		Numeric:     numeric,
		Recipient:   recipient,
		BranchHint:  hint,
		Amount:      amount,
		IsGrocery:   isGrocery,
	}, true
}

// extractAmount scans for the first R-prefixed decimal token. Grocery orders
// only read amounts from "Total" or "Groceries for" lines so item prices in
// the list cannot be mistaken for the total.
func extractAmount(lines []string, grocery bool) (decimal.Decimal, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if grocery && !hasPrefixFold(trimmed, "Total") && !containsFold(trimmed, "roceries for") {
			continue
		}
		for _, token := range strings.Fields(trimmed) {
			if len(token) < 2 || (token[0] != 'R' && token[0] != 'r') {
				continue
			}
			amount, err := decimal.NewFromString(token[1:])
			if err == nil {
				return amount, true
			}
		}
	}
	return decimal.Decimal{}, false
}

func splitLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
