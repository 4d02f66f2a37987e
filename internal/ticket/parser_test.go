package ticket

import (
	"errors"
	"strings"
	"testing"
)

// rawRecord builds a provider record with every field blank except those given
func rawRecord(n int, fields map[int]string) string {
	parts := make([]string, n)
	for idx, v := range fields {
		parts[idx] = v
	}
	return strings.Join(parts, "|")
}

func sampleRaw(train string, seats map[int]string) string {
	fields := map[int]string{
		3:  train,
		6:  "VAP",
		7:  "HZX",
		8:  "08:00",
		9:  "14:30",
		10: "06:30",
	}
	for idx, v := range seats {
		fields[idx] = v
	}
	return rawRecord(36, fields)
}

func TestParseRecord_PositionalMapping(t *testing.T) {
	raw := sampleRaw("G2203", map[int]string{
		21: "1",
		23: "2",
		24: "3",
		26: "4",
		28: "5",
		29: "6",
		30: "7",
		31: "8",
		32: "9",
		33: "10",
	})

	rec, ok := ParseRecord(raw)
	if !ok {
		t.Fatal("ParseRecord rejected a well-formed record")
	}

	if rec.TrainCode != "G2203" || rec.FromCode != "VAP" || rec.ToCode != "HZX" {
		t.Errorf("identity fields = %q %q %q", rec.TrainCode, rec.FromCode, rec.ToCode)
	}
	if rec.DepartureTime != "08:00" || rec.ArrivalTime != "14:30" || rec.Duration != "06:30" {
		t.Errorf("time fields = %q %q %q", rec.DepartureTime, rec.ArrivalTime, rec.Duration)
	}

	expected := map[SeatClass]string{
		SeatPremiumSoftSleeper: "1",
		SeatSoftSleeper:        "2",
		SeatSoftSeat:           "3",
		SeatNoSeat:             "4",
		SeatHardSleeper:        "5",
		SeatHardSeat:           "6",
		SeatSecond:             "7",
		SeatFirst:              "8",
		SeatBusiness:           "9",
		SeatMobileSleeper:      "10",
	}
	for class, token := range expected {
		if got := rec.Seat(class); got != token {
			t.Errorf("Seat(%s) = %q, expected %q", class, got, token)
		}
	}
}

func TestParseRecord_BlankSeatsAreNotOffered(t *testing.T) {
	rec, ok := ParseRecord(sampleRaw("K1", map[int]string{28: "有"}))
	if !ok {
		t.Fatal("ParseRecord rejected a well-formed record")
	}
	if got := rec.Seat(SeatHardSleeper); got != TokenPlenty {
		t.Errorf("Seat(hard-sleeper) = %q, expected %q", got, TokenPlenty)
	}
	if got := rec.Seat(SeatSecond); got != TokenNotOffered {
		t.Errorf("Seat(second) = %q, expected %q", got, TokenNotOffered)
	}
}

func TestParseRecords_DropsShortRecords(t *testing.T) {
	raws := []string{
		sampleRaw("G1", nil),
		rawRecord(33, map[int]string{3: "G2"}),
		"",
		rawRecord(MinFields, map[int]string{3: "G3"}),
	}

	records := ParseRecords(raws)
	if len(records) != 2 {
		t.Fatalf("parsed %d records, expected 2", len(records))
	}
	if records[0].TrainCode != "G1" || records[1].TrainCode != "G3" {
		t.Errorf("train codes = %q, %q", records[0].TrainCode, records[1].TrainCode)
	}
}

func TestParseResponse(t *testing.T) {
	body := `{"httpstatus":200,"data":{"flag":"1","result":["a|b","c|d"]},"messages":[],"status":true}`
	raws, err := ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(raws) != 2 || raws[0] != "a|b" {
		t.Errorf("raws = %v", raws)
	}

	empty, err := ParseResponse([]byte(`{"data":{"result":[]}}`))
	if err != nil || len(empty) != 0 {
		t.Errorf("empty result = %v, %v", empty, err)
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"html", "<html><body>error</body></html>", ""},
		{"empty", "", ""},
		{"no data", `{"status":false}`, ""},
		{"data string", `{"data":""}`, ""},
		{"no result", `{"data":{"flag":"1"},"messages":["系统忙"]}`, "系统忙"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tt.body))
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should include provider message %q", err, tt.msg)
			}
		})
	}
}

func TestFilterTrains(t *testing.T) {
	records := []Record{{TrainCode: "G2203"}, {TrainCode: "D1"}, {TrainCode: "K9"}}

	all := FilterTrains(records, QuerySpec{})
	if len(all) != 3 {
		t.Errorf("empty filter kept %d records, expected 3", len(all))
	}

	some := FilterTrains(records, QuerySpec{TrainCodes: []string{"g2203", "K9", "Z100"}})
	if len(some) != 2 || some[0].TrainCode != "G2203" || some[1].TrainCode != "K9" {
		t.Errorf("filtered = %v", some)
	}

	none := FilterTrains(records, QuerySpec{TrainCodes: []string{"Z100"}})
	if len(none) != 0 {
		t.Errorf("filtered = %v, expected none", none)
	}
}

func TestParseSeatClass(t *testing.T) {
	tests := []struct {
		in       string
		expected SeatClass
	}{
		{"second", SeatSecond},
		{"Hard-Sleeper", SeatHardSleeper},
		{"硬卧", SeatHardSleeper},
		{" 商务座 ", SeatBusiness},
		{"无座", SeatNoSeat},
	}
	for _, tt := range tests {
		got, err := ParseSeatClass(tt.in)
		if err != nil || got != tt.expected {
			t.Errorf("ParseSeatClass(%q) = %q, %v; expected %q", tt.in, got, err, tt.expected)
		}
	}

	if _, err := ParseSeatClass("cabin"); err == nil {
		t.Error("ParseSeatClass(cabin) should fail")
	}
	if _, err := ParseSeatClasses([]string{"硬卧", "cabin"}); err == nil {
		t.Error("ParseSeatClasses should fail on an unknown name")
	}
}
