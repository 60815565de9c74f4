package document

import (
	"errors"
	"fmt"
)

// Document errors.
var (
	// ErrInvalidPosition indicates a position outside the document.
	ErrInvalidPosition = errors.New("document: invalid position")

	// ErrInvalidBlock indicates an unknown block type or heading level.
	ErrInvalidBlock = errors.New("document: invalid block type")

	// ErrInvalidMark indicates an unknown mark type.
	ErrInvalidMark = errors.New("document: invalid mark type")

	// ErrTransactionInProgress indicates Transact or Select was called while
	// another transaction is open.
	ErrTransactionInProgress = errors.New("document: transaction in progress")

	// ErrInvalidDocument indicates malformed TipTap JSON.
	ErrInvalidDocument = errors.New("document: invalid document")
)

// PositionError reports an out-of-range position.
type PositionError struct {
	Pos    Position
	Blocks int
}

// Error implements the error interface.
func (e *PositionError) Error() string {
	return fmt.Sprintf("document: position %s out of range (%d blocks)", e.Pos, e.Blocks)
}

// Is lets errors.Is match ErrInvalidPosition.
func (e *PositionError) Is(target error) bool {
	return target == ErrInvalidPosition
}
