package forecast

import (
	"errors"
	"fmt"
)

// Error categories. Callers classify with errors.Is.
var (
	ErrConfig       = errors.New("configuration error")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrInvalidWindow       = fmt.Errorf("%w: window must be at least one day", ErrConfig)
	ErrNegativeStock       = fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	ErrNegativeQuantity    = fmt.Errorf("%w: quantity sold cannot be negative", ErrInvalidInput)
	ErrInsufficientHistory = errors.New("not enough sales history to fit a trend")
)
