package toc

import (
	"errors"
	"fmt"
)

// SupplierError reports that the token supplier could not decode the
// document (Page 0) or one of its pages.
type SupplierError struct {
	Page int
	Err  error
}

func (e *SupplierError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("decode document: %v", e.Err)
	}
	return fmt.Sprintf("decode page %d: %v", e.Page, e.Err)
}

func (e *SupplierError) Unwrap() error {
	return e.Err
}

// IsSupplierFailure reports whether err came from the token supplier.
func IsSupplierFailure(err error) bool {
	var se *SupplierError
	return errors.As(err, &se)
}
