// Package lanerate looks up spot market rates for lanes on the lane-rate
// analytics service.
package lanerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/freight-batch/pkg/client"
	"github.com/Sternrassler/freight-batch/pkg/credential"
)

// LookupPath is the rate lookup endpoint relative to the analytics base URL.
const LookupPath = "/linehaulrates/v1/lookups"

var (
	// ErrInvalidFormat indicates a lane line without exactly five fields.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrNoData indicates the service answered without a rate.
	ErrNoData = errors.New("no data returned")
)

// Lane is one origin/destination/equipment triple.
type Lane struct {
	OriginCity  string
	OriginState string
	DestCity    string
	DestState   string
	Equipment   string
}

// ParseLane parses "OCITY,OST,DCITY,DST,EQUIP". Fields are trimmed and
// upper-cased.
func ParseLane(line string) (Lane, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return Lane{}, ErrInvalidFormat
	}
	for i := range parts {
		parts[i] = strings.ToUpper(strings.TrimSpace(parts[i]))
	}
	return Lane{
		OriginCity:  parts[0],
		OriginState: parts[1],
		DestCity:    parts[2],
		DestState:   parts[3],
		Equipment:   parts[4],
	}, nil
}

// String renders the lane in its normalized input form.
func (l Lane) String() string {
	return strings.Join([]string{l.OriginCity, l.OriginState, l.DestCity, l.DestState, l.Equipment}, ",")
}

// Rate is the per-trip rate for a lane. Values keep the literal form the
// service sent.
type Rate struct {
	Mileage       json.Number
	RateUSD       json.Number
	LowUSD        json.Number
	FuelSurcharge json.Number
}

// Service performs lane-rate lookups.
type Service struct {
	client *client.Client
}

// NewService creates a lane-rate service on top of c.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// Lookup requests the spot rate for one lane.
func (s *Service) Lookup(ctx context.Context, cred credential.Credential, lane Lane) (Rate, error) {
	req := []lookupRequest{{
		Origin:           place{City: lane.OriginCity, StateOrProvince: lane.OriginState},
		Destination:      place{City: lane.DestCity, StateOrProvince: lane.DestState},
		RateType:         "SPOT",
		Equipment:        lane.Equipment,
		IncludeMyRate:    false,
		TargetEscalation: escalation{EscalationType: "BEST_FIT"},
	}}

	var resp lookupResponse
	if err := s.client.SendJSON(ctx, cred, http.MethodPost, LookupPath, req, &resp); err != nil {
		return Rate{}, fmt.Errorf("lane %s: %w", lane, err)
	}
	if len(resp.RateResponses) == 0 || resp.RateResponses[0].Response.Rate == nil {
		return Rate{}, ErrNoData
	}

	r := resp.RateResponses[0].Response.Rate
	return Rate{
		Mileage:       r.Mileage,
		RateUSD:       r.PerTrip.RateUSD,
		LowUSD:        r.PerTrip.LowUSD,
		FuelSurcharge: r.AverageFuelSurchargePerTripUSD,
	}, nil
}

type place struct {
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
}

type escalation struct {
	EscalationType string `json:"escalationType"`
}

type lookupRequest struct {
	Origin           place      `json:"origin"`
	Destination      place      `json:"destination"`
	RateType         string     `json:"rateType"`
	Equipment        string     `json:"equipment"`
	IncludeMyRate    bool       `json:"includeMyRate"`
	TargetEscalation escalation `json:"targetEscalation"`
}

type lookupResponse struct {
	RateResponses []struct {
		Response struct {
			Rate *struct {
				Mileage json.Number `json:"mileage"`
				PerTrip struct {
					RateUSD json.Number `json:"rateUsd"`
					LowUSD  json.Number `json:"lowUsd"`
				} `json:"perTrip"`
				AverageFuelSurchargePerTripUSD json.Number `json:"averageFuelSurchargePerTripUsd"`
			} `json:"rate"`
		} `json:"response"`
	} `json:"rateResponses"`
}
