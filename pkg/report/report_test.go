package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/client"
	"github.com/Sternrassler/freight-batch/pkg/lanerate"
	"github.com/Sternrassler/freight-batch/pkg/tms"
)

func sampleCarrier() *tms.Carrier {
	return &tms.Carrier{
		Name:      "Acme Freight",
		MCNumber:  "123456",
		DOTNumber: "765432",
		Status:    &tms.Described{Description: "Active"},
		Address: []tms.Address{
			{Line1: "1 Billing Way", City: "Reno", State: "NV", Zip: "89501", Country: "US"},
			{Line1: "100 Main St", City: "Chicago", State: "IL", Zip: "60601", Country: "US", IsPrimary: true},
		},
		Equipment: []tms.Equipment{
			{Qty: "2", Size: &tms.Valued{Value: "53"}, Type: &tms.Valued{Value: "Van"}},
			{Qty: "1", Size: &tms.Valued{Value: "48"}, Type: &tms.Valued{Value: "Flatbed"}},
		},
		Insurance: []tms.Insurance{
			{Type: &tms.Valued{Value: "Cargo"}, Amount: "100000", ExpirationDate: "2025-01-01"},
			{Type: &tms.Valued{Value: "Auto"}, Amount: "1000000", ExpirationDate: "2025-06-30"},
		},
		Authority: &tms.Authority{CommonAuthority: "Active", ContractAuthority: json.Number("1"), BrokerAuthority: false},
	}
}

func TestNormalizeCarrier_Success(t *testing.T) {
	rec := NormalizeCarrier("123456", batch.Succeeded(sampleCarrier()))

	want := CarrierRecord{
		MCNumber:          "123456",
		Status:            StatusSuccess,
		Name:              "Acme Freight",
		CarrierStatus:     "Active",
		MCNumberConfirmed: "123456",
		DOTNumber:         "765432",
		Address:           "100 Main St, Chicago, IL, 60601, US",
		Equipment:         "2x 53 Van, 1x 48 Flatbed",
		Insurance:         "Cargo: $100,000 (Exp: 2025-01-01); Auto: $1,000,000 (Exp: 2025-06-30)",
		CommonAuthority:   "Active",
		ContractAuthority: "1",
		BrokerAuthority:   "false",
	}
	if rec != want {
		t.Errorf("NormalizeCarrier() =\n%+v\nwant\n%+v", rec, want)
	}
	if rec.Failed() {
		t.Error("Failed() = true, want false")
	}
}

func TestNormalizeCarrier_MissingOptionalFields(t *testing.T) {
	rec := NormalizeCarrier("9", batch.Succeeded(&tms.Carrier{Address: []tms.Address{{City: "Nowhere"}}}))

	if rec.Name != "N/A" || rec.CarrierStatus != "Unknown" || rec.DOTNumber != "N/A" {
		t.Errorf("identity fields = %q %q %q, want N/A Unknown N/A", rec.Name, rec.CarrierStatus, rec.DOTNumber)
	}
	if rec.Address != "N/A" {
		t.Errorf("Address = %q, want N/A without a primary address", rec.Address)
	}
	if rec.Equipment != "N/A" || rec.Insurance != "N/A" {
		t.Errorf("lists = %q %q, want N/A", rec.Equipment, rec.Insurance)
	}
	if rec.CommonAuthority != "N/A" || rec.BrokerAuthority != "N/A" {
		t.Errorf("authority = %q %q, want N/A", rec.CommonAuthority, rec.BrokerAuthority)
	}
}

func TestNormalizeCarrier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "not found", err: tms.ErrCarrierNotFound, message: "Carrier not found"},
		{name: "details missing", err: tms.ErrDetailsMissing, message: "Carrier details missing"},
		{
			name:    "lookup failed",
			err:     &tms.CallError{Op: tms.OpCarrierLookup, Err: &client.PartnerError{StatusCode: 502, Message: "Bad Gateway"}},
			message: "Carrier lookup failed - Bad Gateway",
		},
		{name: "panic", err: &batch.PanicError{Value: "boom"}, message: (&batch.PanicError{Value: "boom"}).Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NormalizeCarrier("42", batch.Failed[*tms.Carrier](tt.err))
			want := CarrierRecord{MCNumber: "42", Status: StatusError, Message: tt.message}
			if rec != want {
				t.Errorf("NormalizeCarrier() = %+v, want %+v", rec, want)
			}
			if !rec.Failed() {
				t.Error("Failed() = false, want true")
			}
		})
	}
}

func TestNormalizeTagCarrier(t *testing.T) {
	tests := []struct {
		name    string
		outcome batch.Outcome[string]
		message string
		success bool
	}{
		{name: "tagged", outcome: batch.Succeeded("77"), message: "MC 123: Tagged successfully", success: true},
		{name: "not found", outcome: batch.Failed[string](tms.ErrCarrierNotFound), message: "MC 123: Carrier not found"},
		{
			name:    "tag rejected",
			outcome: batch.Failed[string](&tms.CallError{Op: tms.OpTagging, Err: &client.PartnerError{StatusCode: 403, Message: "forbidden"}}),
			message: "MC 123: Tagging failed - forbidden",
		},
		{
			name:    "lookup failed",
			outcome: batch.Failed[string](&tms.CallError{Op: tms.OpCarrierLookup, Err: errors.New("timeout")}),
			message: "MC 123: Error - Carrier lookup failed - timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NormalizeTagCarrier("tag-carrier", "123", tt.outcome)
			if rec.Message != tt.message {
				t.Errorf("Message = %q, want %q", rec.Message, tt.message)
			}
			if rec.Success != tt.success || rec.Failed() == tt.success {
				t.Errorf("Success = %v, want %v", rec.Success, tt.success)
			}
			if rec.Operation != "tag-carrier" || rec.Identifier != "123" {
				t.Errorf("record = %+v", rec)
			}
		})
	}
}

func TestNormalizeTargetRate(t *testing.T) {
	target := tms.TargetRate{ShipmentID: "SHIP1", MinPay: "1500", Tag: "OPS1"}

	ok := NormalizeTargetRate("target-rate-tag", "SHIP1,1500,OPS1", target, batch.Succeeded(struct{}{}))
	if ok.Message != "SHIP1: Success" || ok.Status != StatusSuccess || ok.MinPay != "1500" || ok.Tag != "OPS1" {
		t.Errorf("success record = %+v", ok)
	}

	invalid := NormalizeTargetRate("target-rate-tag", "SHIP9,,", tms.TargetRate{}, batch.Failed[struct{}](fmt.Errorf("%w: SHIP9,,", tms.ErrInvalidEntry)))
	if invalid.Message != "Skipping invalid entry: SHIP9,," || invalid.Identifier != "SHIP9" || invalid.Success {
		t.Errorf("invalid record = %+v", invalid)
	}

	joined := errors.Join(
		&tms.CallError{Op: tms.OpSetTargetRate, Err: &client.PartnerError{StatusCode: 404, Message: "no shipment"}},
		&tms.CallError{Op: tms.OpApplyTag, Err: &client.PartnerError{StatusCode: 404, Message: "no shipment"}},
	)
	failed := NormalizeTargetRate("target-rate-tag", "SHIP1,1500,OPS1", target, batch.Failed[struct{}](joined))
	want := "SHIP1: Failed - Target rate failed - no shipment; Tag attach failed - no shipment"
	if failed.Message != want || failed.Status != StatusError {
		t.Errorf("failed record message = %q, want %q", failed.Message, want)
	}
}

func TestNormalizeLane(t *testing.T) {
	lane, _ := lanerate.ParseLane("CHICAGO,IL,ATLANTA,GA,VAN")

	tests := []struct {
		name    string
		line    string
		lane    lanerate.Lane
		outcome batch.Outcome[lanerate.Rate]
		want    string
		failed  bool
	}{
		{
			name:    "rate",
			line:    "CHICAGO,IL,ATLANTA,GA,VAN",
			lane:    lane,
			outcome: batch.Succeeded(lanerate.Rate{Mileage: "715", RateUSD: "2100", LowUSD: "1800", FuelSurcharge: "150"}),
			want:    "CHICAGO,IL,ATLANTA,GA,VAN:715,2100,1800,150",
		},
		{
			name:    "invalid format",
			line:    "BADLINE",
			outcome: batch.Failed[lanerate.Rate](lanerate.ErrInvalidFormat),
			want:    "BADLINE: Invalid format",
			failed:  true,
		},
		{
			name:    "no data",
			line:    "chicago,il,atlanta,ga,van",
			lane:    lane,
			outcome: batch.Failed[lanerate.Rate](lanerate.ErrNoData),
			want:    "CHICAGO,IL,ATLANTA,GA,VAN: No data returned",
			failed:  true,
		},
		{
			name:    "api error",
			line:    "CHICAGO,IL,ATLANTA,GA,VAN",
			lane:    lane,
			outcome: batch.Failed[lanerate.Rate](fmt.Errorf("lane: %w", &client.PartnerError{StatusCode: 429, ErrorClass: client.ErrorClassRateLimit})),
			want:    "CHICAGO,IL,ATLANTA,GA,VAN: API error 429",
			failed:  true,
		},
		{
			name: "malformed body on 200",
			line: "CHICAGO,IL,ATLANTA,GA,VAN",
			lane: lane,
			outcome: batch.Failed[lanerate.Rate](&client.PartnerError{
				StatusCode: 200, ErrorClass: client.ErrorClassFormat, Message: "malformed JSON",
			}),
			want:   "CHICAGO,IL,ATLANTA,GA,VAN: Error - malformed JSON",
			failed: true,
		},
		{
			name:    "network error",
			line:    "CHICAGO,IL,ATLANTA,GA,VAN",
			lane:    lane,
			outcome: batch.Failed[lanerate.Rate](errors.New("connection reset")),
			want:    "CHICAGO,IL,ATLANTA,GA,VAN: Error - connection reset",
			failed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NormalizeLane(tt.line, tt.lane, tt.outcome)
			if rec.Line() != tt.want || rec.Result != tt.want {
				t.Errorf("Line() = %q, Result = %q, want %q", rec.Line(), rec.Result, tt.want)
			}
			if rec.Failed() != tt.failed {
				t.Errorf("Failed() = %v, want %v", rec.Failed(), tt.failed)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		NormalizeCarrier("123456", batch.Succeeded(sampleCarrier())),
		NormalizeCarrier("42", batch.Failed[*tms.Carrier](tms.ErrCarrierNotFound)),
	}
	result := NewBatchResult("id-1", "check-mc", FamilyCarrier, records, time.Now(), time.Second)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "MC Number,Status,Message,Name") {
		t.Errorf("header = %q", lines[0])
	}
	for i, line := range lines {
		if got := strings.Count(line, ","); got != len(carrierHeader)-1 {
			t.Errorf("line %d has %d separators, want %d: %q", i, got, len(carrierHeader)-1, line)
		}
	}
	if !strings.Contains(lines[1], "100 Main St  Chicago  IL  60601  US") {
		t.Errorf("address commas not replaced: %q", lines[1])
	}
	if !strings.Contains(lines[1], "$100 000") {
		t.Errorf("grouped amount commas not replaced: %q", lines[1])
	}
}

func TestWriteCSV_Lane(t *testing.T) {
	lane, _ := lanerate.ParseLane("CHICAGO,IL,ATLANTA,GA,VAN")
	records := []Record{
		NormalizeLane("CHICAGO,IL,ATLANTA,GA,VAN", lane, batch.Succeeded(lanerate.Rate{Mileage: "715", RateUSD: "2100", LowUSD: "1800", FuelSurcharge: "150"})),
		NormalizeLane("BADLINE", lanerate.Lane{}, batch.Failed[lanerate.Rate](lanerate.ErrInvalidFormat)),
	}
	result := NewBatchResult("id-2", "dat-rates", FamilyLane, records, time.Now(), 0)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "Lane,Mileage,Rate USD,Low USD,Fuel Surcharge USD,Result\n" +
		"CHICAGO IL ATLANTA GA VAN,715,2100,1800,150,CHICAGO IL ATLANTA GA VAN:715 2100 1800 150\n" +
		"BADLINE,,,,,BADLINE: Invalid format\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_FamilyMismatch(t *testing.T) {
	result := NewBatchResult("id", "check-mc", FamilyCarrier, []Record{UpdateRecord{}}, time.Now(), 0)
	if err := WriteCSV(&bytes.Buffer{}, result); err == nil {
		t.Error("WriteCSV() error = nil, want family mismatch")
	}
}

func TestBatchResult_JSON(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		NormalizeTagCarrier("tag-carrier", "1", batch.Succeeded("10")),
		NormalizeTagCarrier("tag-carrier", "2", batch.Failed[string](tms.ErrCarrierNotFound)),
	}
	result := NewBatchResult("abc", "tag-carrier", FamilyUpdate, records, started, 1234*time.Millisecond)

	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.Succeeded, result.Failed)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal(raw) error = %v", err)
	}
	if raw["durationSeconds"] != "1.23" {
		t.Errorf("durationSeconds = %v, want 1.23", raw["durationSeconds"])
	}
	if results, _ := raw["results"].([]any); len(results) != 2 {
		t.Errorf("results = %v, want 2 entries", raw["results"])
	}

	var decoded BatchResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded.Records) != 2 {
		t.Fatalf("decoded records = %d, want 2", len(decoded.Records))
	}
	if rec, ok := decoded.Records[1].(UpdateRecord); !ok || rec.Message != "MC 2: Carrier not found" {
		t.Errorf("decoded record = %#v", decoded.Records[1])
	}
	if decoded.Duration != 1230*time.Millisecond {
		t.Errorf("decoded Duration = %v, want 1.23s", decoded.Duration)
	}
}

func TestBatchResult_EmptyRecordsMarshalAsArray(t *testing.T) {
	data, err := json.Marshal(NewBatchResult("x", "check-mc", FamilyCarrier, nil, time.Now(), 0))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"results":[]`) {
		t.Errorf("results not an empty array: %s", data)
	}
}
