package db

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

// RecordOperation inserts op, assigning an OperationID and pending status
// when they are unset.
func (d *DB) RecordOperation(op *store.Operation) error {
	if op.OperationID == "" {
		op.OperationID = ulid.Make().String()
	}
	if op.Status == "" {
		op.Status = store.StatusPending
	}
	if err := d.client.Create(op).Error; err != nil {
		return errors.Wrap(err, "failed to record operation")
	}
	return nil
}

// UpdateOperationStatus sets the outcome of a recorded operation.
func (d *DB) UpdateOperationStatus(operationID, status, signature, errMsg string) error {
	result := d.client.Model(&store.Operation{}).
		Where("operation_id = ?", operationID).
		Updates(map[string]any{
			"status":    status,
			"signature": signature,
			"error_msg": errMsg,
		})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update operation %s", operationID)
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("operation %s not found", operationID)
	}
	return nil
}

// GetOperation returns the operation with the given id.
func (d *DB) GetOperation(operationID string) (*store.Operation, error) {
	var op store.Operation
	if err := d.client.Where("operation_id = ?", operationID).First(&op).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to get operation %s", operationID)
	}
	return &op, nil
}

// ListOperationsByMint returns the most recent operations for mint, newest first.
// A limit of zero or less returns every operation.
func (d *DB) ListOperationsByMint(mint string, limit int) ([]store.Operation, error) {
	var ops []store.Operation
	q := d.client.Where("mint = ?", mint).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ops).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list operations for mint %s", mint)
	}
	return ops, nil
}

// DeleteOperationsBefore permanently removes finished operations last
// updated before cutoff. Pending operations are kept.
func (d *DB) DeleteOperationsBefore(cutoff time.Time) (int64, error) {
	result := d.client.Unscoped().
		Where("status IN ? AND updated_at < ?", []string{store.StatusConfirmed, store.StatusFailed}, cutoff).
		Delete(&store.Operation{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old operations")
	}
	return result.RowsAffected, nil
}
