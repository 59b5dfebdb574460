package entity

import "fmt"

// UnknownTransactionTypeError signals a transaction whose type has no
// registered description formatter. It is returned when the description is
// requested, not at construction time.
type UnknownTransactionTypeError struct {
	Type string
}

func (e *UnknownTransactionTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type: %s", e.Type)
}
