package logistics

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrNotCourierToken = errors.New("token is not bound to a courier")
)
