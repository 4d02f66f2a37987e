package ticket

import (
	"fmt"
	"strings"
)

// SeatClass is a category of accommodation with its own availability count
type SeatClass string

const (
	SeatBusiness           SeatClass = "business"
	SeatFirst              SeatClass = "first"
	SeatSecond             SeatClass = "second"
	SeatPremiumSoftSleeper SeatClass = "premium-soft-sleeper"
	SeatSoftSleeper        SeatClass = "soft-sleeper"
	SeatHardSleeper        SeatClass = "hard-sleeper"
	SeatSoftSeat           SeatClass = "soft-seat"
	SeatHardSeat           SeatClass = "hard-seat"
	SeatNoSeat             SeatClass = "no-seat"
	SeatMobileSleeper      SeatClass = "mobile-sleeper"
)

// AllSeatClasses lists every seat class in display order
var AllSeatClasses = []SeatClass{
	SeatBusiness,
	SeatFirst,
	SeatSecond,
	SeatPremiumSoftSleeper,
	SeatSoftSleeper,
	SeatMobileSleeper,
	SeatHardSleeper,
	SeatSoftSeat,
	SeatHardSeat,
	SeatNoSeat,
}

// seatLabels are the provider's own names for each class
var seatLabels = map[SeatClass]string{
	SeatBusiness:           "商务座",
	SeatFirst:              "一等座",
	SeatSecond:             "二等座",
	SeatPremiumSoftSleeper: "高级软卧",
	SeatSoftSleeper:        "软卧",
	SeatHardSleeper:        "硬卧",
	SeatSoftSeat:           "软座",
	SeatHardSeat:           "硬座",
	SeatNoSeat:             "无座",
	SeatMobileSleeper:      "动卧",
}

// Label returns the provider's display name for the class
func (c SeatClass) Label() string {
	if label, ok := seatLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseSeatClass accepts either the slug ("hard-sleeper") or the provider label ("硬卧")
func ParseSeatClass(s string) (SeatClass, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllSeatClasses {
		if strings.EqualFold(s, string(c)) || s == seatLabels[c] {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown seat class %q", s)
}

// ParseSeatClasses parses a list of seat class names, failing on the first unknown one
func ParseSeatClasses(names []string) ([]SeatClass, error) {
	if len(names) == 0 {
		return nil, nil
	}
	classes := make([]SeatClass, 0, len(names))
	for _, name := range names {
		c, err := ParseSeatClass(name)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// Availability tokens with special meaning
const (
	TokenNotOffered = "--"
	TokenNone       = "无"
	TokenPlenty     = "有"
)

// Record is one train's offering for the queried route and date
type Record struct {
	TrainCode     string               `json:"train_code"`
	FromCode      string               `json:"from_code"`
	ToCode        string               `json:"to_code"`
	DepartureTime string               `json:"departure_time"`
	ArrivalTime   string               `json:"arrival_time"`
	Duration      string               `json:"duration"`
	Seats         map[SeatClass]string `json:"seats"`
}

// Seat returns the availability token for class, or TokenNotOffered when absent
func (r Record) Seat(class SeatClass) string {
	if token, ok := r.Seats[class]; ok {
		return token
	}
	return TokenNotOffered
}

// QuerySpec describes what to look for
type QuerySpec struct {
	FromStation string
	ToStation   string
	Date        string
	// TrainCodes restricts results to these trains when non-empty
	TrainCodes []string
	// SeatClasses are the classes the operator cares about; empty means the common set
	SeatClasses []SeatClass
}

// wantsTrain reports whether code passes the train filter
func (s QuerySpec) wantsTrain(code string) bool {
	if len(s.TrainCodes) == 0 {
		return true
	}
	for _, c := range s.TrainCodes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
