package storage

import "errors"

var (
	// ErrTransactionExists is returned when appending a transaction whose
	// ID is already recorded. The ledger is append-once.
	ErrTransactionExists = errors.New("transaction already recorded")
)
