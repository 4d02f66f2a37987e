// Package availability decides whether a ticket record has seats worth alerting on.
package availability

import "github.com/mini-rodalies-3d/ticketwatch/internal/ticket"

// DefaultSeatClasses is evaluated when the operator names no seat classes
var DefaultSeatClasses = []ticket.SeatClass{
	ticket.SeatSecond,
	ticket.SeatFirst,
	ticket.SeatBusiness,
	ticket.SeatHardSleeper,
	ticket.SeatSoftSleeper,
	ticket.SeatHardSeat,
}

// Seat is one available seat class and its availability token
type Seat struct {
	Class ticket.SeatClass
	Token string
}

// Effective returns classes, or DefaultSeatClasses when classes is empty
func Effective(classes []ticket.SeatClass) []ticket.SeatClass {
	if len(classes) == 0 {
		return DefaultSeatClasses
	}
	return classes
}

// IsAvailable reports whether any interesting class has a token other than
// the not-offered or none sentinels. Classes missing from the record are skipped.
func IsAvailable(rec ticket.Record, classes []ticket.SeatClass) bool {
	for _, class := range Effective(classes) {
		if token, ok := rec.Seats[class]; ok && isAvailableToken(token) {
			return true
		}
	}
	return false
}

// AvailableSeats lists the interesting classes that have seats, in evaluation order
func AvailableSeats(rec ticket.Record, classes []ticket.SeatClass) []Seat {
	var seats []Seat
	for _, class := range Effective(classes) {
		if token, ok := rec.Seats[class]; ok && isAvailableToken(token) {
			seats = append(seats, Seat{Class: class, Token: token})
		}
	}
	return seats
}

// Partition splits records into those with and without available seats,
// preserving their order
func Partition(records []ticket.Record, classes []ticket.SeatClass) (available, unavailable []ticket.Record) {
	for _, rec := range records {
		if IsAvailable(rec, classes) {
			available = append(available, rec)
		} else {
			unavailable = append(unavailable, rec)
		}
	}
	return available, unavailable
}

func isAvailableToken(token string) bool {
	return token != ticket.TokenNotOffered && token != ticket.TokenNone
}
