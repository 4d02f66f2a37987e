package ticket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LayoutVersion identifies the provider's positional record format that
// FieldLayout describes. Bump it together with the table when the provider
// moves fields around.
const LayoutVersion = "leftTicket-2024"

// MinFields is the shortest raw record accepted; shorter ones are dropped
const MinFields = 34

// recordSeparator splits the fields of one raw record
const recordSeparator = "|"

// FieldLayout maps record fields to positions in a raw record
var FieldLayout = struct {
	TrainCode     int
	FromCode      int
	ToCode        int
	DepartureTime int
	ArrivalTime   int
	Duration      int
	Seats         map[SeatClass]int
}{
	TrainCode:     3,
	FromCode:      6,
	ToCode:        7,
	DepartureTime: 8,
	ArrivalTime:   9,
	Duration:      10,
	Seats: map[SeatClass]int{
		SeatPremiumSoftSleeper: 21,
		SeatSoftSleeper:        23,
		SeatSoftSeat:           24,
		SeatNoSeat:             26,
		SeatHardSleeper:        28,
		SeatHardSeat:           29,
		SeatSecond:             30,
		SeatFirst:              31,
		SeatBusiness:           32,
		SeatMobileSleeper:      33,
	},
}

// ErrMalformedResponse is returned when a response body is not the expected JSON shape
var ErrMalformedResponse = errors.New("malformed ticket response")

// ParseRecord converts one raw record into a Record.
// ok is false when the record has fewer than MinFields fields.
func ParseRecord(raw string) (rec Record, ok bool) {
	fields := strings.Split(raw, recordSeparator)
	if len(fields) < MinFields {
		return Record{}, false
	}

	rec = Record{
		TrainCode:     fields[FieldLayout.TrainCode],
		FromCode:      fields[FieldLayout.FromCode],
		ToCode:        fields[FieldLayout.ToCode],
		DepartureTime: fields[FieldLayout.DepartureTime],
		ArrivalTime:   fields[FieldLayout.ArrivalTime],
		Duration:      fields[FieldLayout.Duration],
		Seats:         make(map[SeatClass]string, len(FieldLayout.Seats)),
	}
	for class, idx := range FieldLayout.Seats {
		token := strings.TrimSpace(fields[idx])
		if token == "" {
			token = TokenNotOffered
		}
		rec.Seats[class] = token
	}
	return rec, true
}

// ParseRecords converts raw records, silently dropping malformed ones
func ParseRecords(raws []string) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := ParseRecord(raw); ok {
			records = append(records, rec)
		}
	}
	return records
}

// leftTicketResponse is the JSON envelope of the ticket API:
// {"data": {"result": ["...|...", ...]}, "messages": [...]}
type leftTicketResponse struct {
	Data     json.RawMessage `json:"data"`
	Messages json.RawMessage `json:"messages"`
	Message  json.RawMessage `json:"message"`
}

type leftTicketData struct {
	Result *[]string `json:"result"`
}

// ParseResponse decodes a ticket API body and returns its raw record strings.
// Errors wrap ErrMalformedResponse and carry any provider message.
func ParseResponse(body []byte) ([]string, error) {
	var resp leftTicketResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: not JSON: %v", ErrMalformedResponse, err)
	}

	var data leftTicketData
	if len(resp.Data) == 0 || json.Unmarshal(resp.Data, &data) != nil || data.Result == nil {
		if msg := providerMessage(resp); msg != "" {
			return nil, fmt.Errorf("%w: no data.result (provider says %s)", ErrMalformedResponse, msg)
		}
		return nil, fmt.Errorf("%w: no data.result", ErrMalformedResponse)
	}
	return *data.Result, nil
}

func providerMessage(resp leftTicketResponse) string {
	for _, raw := range []json.RawMessage{resp.Messages, resp.Message} {
		if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` || string(raw) == "[]" {
			continue
		}
		return string(raw)
	}
	return ""
}

// FilterTrains drops records whose train code is not in the query's train filter
func FilterTrains(records []Record, spec QuerySpec) []Record {
	if len(spec.TrainCodes) == 0 {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if spec.wantsTrain(r.TrainCode) {
			out = append(out, r)
		}
	}
	return out
}
