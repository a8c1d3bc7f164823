package curve

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingQuote = errors.New("missing par yield")
	ErrConversion   = errors.New("rate conversion failed")
	ErrEmptyBatch   = errors.New("no curve dates to export")
)

// QuoteError reports a failure tied to one knot of one curve date.
type QuoteError struct {
	Kind error
	Date time.Time
	Knot string
	Msg  string
}

func (e *QuoteError) Error() string {
	if e == nil {
		return ""
	}
	s := fmt.Sprintf("%s: %s %s", e.Kind.Error(), e.Date.Format(DateLayout), e.Knot)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *QuoteError) Unwrap() error { return e.Kind }

func missingf(date time.Time, knot string) error {
	return &QuoteError{Kind: ErrMissingQuote, Date: date, Knot: knot}
}

func conversionf(date time.Time, knot, format string, args ...any) error {
	return &QuoteError{Kind: ErrConversion, Date: date, Knot: knot, Msg: fmt.Sprintf(format, args...)}
}
