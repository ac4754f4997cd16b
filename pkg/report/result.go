package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// BatchResult is a finished batch: one record per input line, in input order.
type BatchResult struct {
	ID        string
	Operation string
	Family    Family
	Records   []Record
	Succeeded int
	Failed    int
	Duration  time.Duration
	StartedAt time.Time
}

// NewBatchResult assembles a result and counts its failures.
func NewBatchResult(id, operation string, family Family, records []Record, startedAt time.Time, elapsed time.Duration) *BatchResult {
	if records == nil {
		records = []Record{}
	}
	r := &BatchResult{
		ID:        id,
		Operation: operation,
		Family:    family,
		Records:   records,
		Duration:  elapsed,
		StartedAt: startedAt,
	}
	for _, rec := range records {
		if rec.Failed() {
			r.Failed++
		} else {
			r.Succeeded++
		}
	}
	return r
}

// DurationSeconds renders the elapsed time with two decimals.
func (r BatchResult) DurationSeconds() string {
	return strconv.FormatFloat(r.Duration.Seconds(), 'f', 2, 64)
}

type batchResultJSON struct {
	ID              string          `json:"id"`
	Operation       string          `json:"operation"`
	Family          Family          `json:"family"`
	Results         json.RawMessage `json:"results"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	DurationSeconds string          `json:"durationSeconds"`
	StartedAt       time.Time       `json:"startedAt"`
}

// MarshalJSON implements json.Marshaler.
func (r BatchResult) MarshalJSON() ([]byte, error) {
	records := r.Records
	if records == nil {
		records = []Record{}
	}
	results, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return json.Marshal(batchResultJSON{
		ID:              r.ID,
		Operation:       r.Operation,
		Family:          r.Family,
		Results:         results,
		Succeeded:       r.Succeeded,
		Failed:          r.Failed,
		DurationSeconds: r.DurationSeconds(),
		StartedAt:       r.StartedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The family field selects the
// concrete record type.
func (r *BatchResult) UnmarshalJSON(data []byte) error {
	var aux batchResultJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var records []Record
	var err error
	switch aux.Family {
	case FamilyCarrier:
		records, err = decodeRecords[CarrierRecord](aux.Results)
	case FamilyUpdate:
		records, err = decodeRecords[UpdateRecord](aux.Results)
	case FamilyLane:
		records, err = decodeRecords[LaneRecord](aux.Results)
	default:
		return fmt.Errorf("unknown record family %q", aux.Family)
	}
	if err != nil {
		return fmt.Errorf("decode %s records: %w", aux.Family, err)
	}

	var elapsed time.Duration
	if aux.DurationSeconds != "" {
		secs, err := strconv.ParseFloat(aux.DurationSeconds, 64)
		if err != nil {
			return fmt.Errorf("invalid durationSeconds: %w", err)
		}
		elapsed = time.Duration(math.Round(secs*1000)) * time.Millisecond
	}

	*r = BatchResult{
		ID:        aux.ID,
		Operation: aux.Operation,
		Family:    aux.Family,
		Records:   records,
		Succeeded: aux.Succeeded,
		Failed:    aux.Failed,
		Duration:  elapsed,
		StartedAt: aux.StartedAt,
	}
	return nil
}

func decodeRecords[R Record](raw json.RawMessage) ([]Record, error) {
	var typed []R
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, err
		}
	}
	out := make([]Record, len(typed))
	for i, rec := range typed {
		out[i] = rec
	}
	return out, nil
}
