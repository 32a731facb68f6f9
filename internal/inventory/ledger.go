// Package inventory is the single writer of ticket-type stock. All stock
// mutation goes through Decrement, under row locks taken by the caller's
// transaction, so the sum of tickets ever confirmed for a type can never
// exceed its original stock.
package inventory

import (
	"fmt"
	"sort"

	"thticket/internal/events"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReserveCheck acquires exclusive locks on the referenced ticket-type rows
// and validates that every requested quantity is covered by remaining stock.
// It mutates nothing. The caller must run it inside the same transaction as
// any subsequent Decrement, otherwise the check is worthless.
func ReserveCheck(tx *gorm.DB, quantities map[uint]int) error {
	_, err := lockAndValidate(tx, quantities)
	return err
}

// Decrement re-validates stock and subtracts each requested quantity from its
// row. It must only run under locks already held in the caller's transaction;
// the re-validation is defense in depth, not a substitute for ReserveCheck.
func Decrement(tx *gorm.DB, quantities map[uint]int) error {
	ids, err := lockAndValidate(tx, quantities)
	if err != nil {
		return err
	}

	for _, id := range ids {
		result := tx.Model(&events.TicketType{}).
			Where("id = ?", id).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", quantities[id]))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement stock for ticket type %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTicketTypeNotFound
		}
	}

	return nil
}

// lockAndValidate selects the referenced rows FOR UPDATE in ascending id
// order (a fixed lock order makes deadlock between overlapping requests
// impossible) and checks every requested quantity against current stock.
// Returns the sorted ids so callers mutate in the same order.
func lockAndValidate(tx *gorm.DB, quantities map[uint]int) ([]uint, error) {
	if len(quantities) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []events.TicketType
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock ticket types: %w", err)
	}

	byID := make(map[uint]*events.TicketType, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	// Fail fast on the first missing or insufficient type
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ticket type %d: %w", id, ErrTicketTypeNotFound)
		}
		requested := quantities[id]
		if row.Quantity < requested {
			return nil, &InsufficientStockError{
				TicketTypeID: id,
				Requested:    requested,
				Available:    row.Quantity,
			}
		}
	}

	return ids, nil
}
