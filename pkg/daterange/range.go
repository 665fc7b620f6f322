package daterange

import "errors"

var (
	ErrEmptyStay    = errors.New("empty_stay")
	ErrInvertedSpan = errors.New("inverted_span")
)

// Stay is a half-open range of nights [CheckIn, CheckOut).
type Stay struct {
	CheckIn  Date `json:"checkin"`
	CheckOut Date `json:"checkout"`
}

// NewStay rejects zero-night and inverted stays.
func NewStay(checkIn, checkOut Date) (Stay, error) {
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return Stay{}, ErrEmptyStay
	}
	return Stay{CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (s Stay) Nights() int {
	n := s.CheckIn.DaysUntil(s.CheckOut)
	if n < 0 {
		return 0
	}
	return n
}

// Dates lists every night of the stay in order; the checkout date is excluded.
func (s Stay) Dates() []Date {
	nights := s.Nights()
	dates := make([]Date, 0, nights)
	for i := 0; i < nights; i++ {
		dates = append(dates, s.CheckIn.AddDays(i))
	}
	return dates
}

// LastNight is the final night of the stay.
func (s Stay) LastNight() Date {
	return s.CheckOut.AddDays(-1)
}

// Span is an inclusive range of dates [Start, End].
type Span struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

func NewSpan(start, end Date) (Span, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return Span{}, ErrInvertedSpan
	}
	return Span{Start: start, End: end}, nil
}

// Days counts both endpoints.
func (s Span) Days() int {
	return s.Start.DaysUntil(s.End) + 1
}

func (s Span) Contains(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s Span) Dates() []Date {
	days := s.Days()
	if days <= 0 {
		return nil
	}
	dates := make([]Date, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, s.Start.AddDays(i))
	}
	return dates
}

// OverlapsStay reports whether any night of stay falls inside the span.
func (s Span) OverlapsStay(stay Stay) bool {
	return !s.Start.After(stay.LastNight()) && !s.End.Before(stay.CheckIn)
}
