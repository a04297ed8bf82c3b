package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abelzimusi/order-verification-app/models"

	"gorm.io/gorm"
)

// processOrder runs field extraction, branch matching and order-number
// allocation for a chat message. The read-max / decide / insert sequence runs
// under the group's mutex so two concurrent submissions cannot both claim the
// same corrected number.
//
// On the corrected-duplicate path the branch and admin do receive the
// corrected message. Earlier revisions of this service disagreed on that;
// suppressing the fan-out left branches fulfilling orders they never saw
// corrected, so the notifications stay.
func (p *Processor) processOrder(ctx context.Context, msg message) (string, error) {
	fields, ok := extractOrderFields(msg.Body)
	if !ok {
		log.Printf("Failed to extract order number, amount, or branch from message %s", msg.ID)
		return "ignored: could not extract order fields", nil
	}

	var branches []models.Branch
	if err := p.db.Find(&branches).Error; err != nil {
		return "", err
	}
	branch := matchBranch(msg.Body, branches)
	if branch == nil {
		p.notify(ctx, msg.From, "Error: Branch not found in the message.")
		return "Branch not found.", nil
	}

	unlock := p.groupLocks.Lock(branch.Group)
	defer unlock()

	// Remember the extracted (pre-correction) number so a rapid redelivery of
	// the same physical message is dropped even before persistence settles.
	cacheKey := branch.Group + "/" + fields.OrderNumber
	if err := p.recentOrders.Add(cacheKey, p.now(), orderCacheTTL); err != nil {
		return "ignored: order recently processed", nil
	}

	maxNumber, err := p.maxOrderNumber(branch.Group)
	if err != nil {
		p.recentOrders.Delete(cacheKey)
		return "", err
	}

	candidate := fields.Numeric
	if candidate <= maxNumber {
		candidate = maxNumber + 1
		log.Printf("Order number %s is outdated for group %s, correcting to %d", fields.OrderNumber, branch.Group, candidate)
	}
	candidateStr := strconv.Itoa(candidate)

	existing, err := p.findOrderInGroup(branch.Group, fields.OrderNumber)
	if err != nil {
		p.recentOrders.Delete(cacheKey)
		return "", err
	}

	completeMessage := msg.Body + " " + serviceTag
	if candidate != fields.Numeric {
		completeMessage = strings.ReplaceAll(completeMessage, fields.OrderNumber, candidateStr)
	}

	if existing != nil {
		if existing.OrderNumber == candidateStr {
			// Redelivery after a prior successful correction: nothing to do.
			return "Order already corrected.", nil
		}

		// Genuine duplicate submission. The existing row stays untouched; a
		// new row is added under the corrected number.
		if err := p.createOrder(candidateStr, branch.ID, fields); err != nil {
			p.recentOrders.Delete(cacheKey)
			return "", err
		}
		p.notify(ctx, msg.From, fmt.Sprintf("Duplicate order detected. Corrected order number: %s", candidateStr))
		p.notify(ctx, branch.PhoneNumber, completeMessage)
		p.notify(ctx, branch.AdminPhoneNumber, completeMessage)
		return fmt.Sprintf("Duplicate order corrected to %s.", candidateStr), nil
	}

	storedNumber := fields.OrderNumber
	if candidate != fields.Numeric {
		storedNumber = candidateStr
	}
	if err := p.createOrder(storedNumber, branch.ID, fields); err != nil {
		p.recentOrders.Delete(cacheKey)
		return "", err
	}
	if candidate != fields.Numeric {
		p.notify(ctx, msg.From, fmt.Sprintf("Order number corrected to %s.", candidateStr))
	}
	p.notify(ctx, branch.PhoneNumber, completeMessage)
	p.notify(ctx, branch.AdminPhoneNumber, completeMessage)
	return "Order processed successfully.", nil
}

// maxOrderNumber returns the highest order number already assigned in a
// branch group, or 0 when the group has no orders yet. Order numbers are
// stored as strings; "+ 0" coerces them to numbers for ordering on both
// MySQL and SQLite.
func (p *Processor) maxOrderNumber(group string) (int, error) {
	var row models.Order
	err := p.db.Model(&models.Order{}).
		Joins("JOIN branches ON branches.id = orders.branch_id").
		Where("branches.branch_group = ?", group).
		Order("(orders.order_number + 0) DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(row.OrderNumber)
	if err != nil {
		return 0, fmt.Errorf("non-numeric order number %q in group %s: %w", row.OrderNumber, group, err)
	}
	return n, nil
}

// findOrderInGroup looks up an order by its extracted number scoped to the
// group. Returns nil when no such order exists.
func (p *Processor) findOrderInGroup(group, orderNumber string) (*models.Order, error) {
	var row models.Order
	err := p.db.Model(&models.Order{}).
		Joins("JOIN branches ON branches.id = orders.branch_id").
		Where("branches.branch_group = ? AND orders.order_number = ?", group, orderNumber).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (p *Processor) createOrder(orderNumber string, branchID uint, fields orderFields) error {
	order := models.Order{
		OrderNumber: orderNumber,
		BranchID:    branchID,
		Recipient:   fields.Recipient,
		Status:      "New",
		Amount:      fields.Amount,
		IsGrocery:   fields.IsGrocery,
	}
	return p.db.Create(&order).Error
}
