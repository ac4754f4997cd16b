// Package tms holds the per-item remote-call sequences against the
// transportation management system: carrier lookup, carrier tagging and
// shipment target-rate updates.
package tms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/freight-batch/pkg/client"
	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/Sternrassler/freight-batch/pkg/extract"
)

// DoNotUseTag is attached to carriers that must no longer be booked.
const DoNotUseTag = "donotuse"

var (
	// ErrCarrierNotFound indicates the carrier search held no qualifying node.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrDetailsMissing indicates the detail answer had no details object.
	ErrDetailsMissing = errors.New("carrier details missing")

	// ErrInvalidEntry indicates a malformed input line.
	ErrInvalidEntry = errors.New("invalid entry")
)

// Remote steps named in CallError.
const (
	OpCarrierLookup = "Carrier lookup failed"
	OpDetailsFetch  = "Details fetch failed"
	OpTagging       = "Tagging failed"
	OpSetTargetRate = "Target rate failed"
	OpApplyTag      = "Tag attach failed"
)

// CallError names the remote step that failed.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Service performs TMS calls with one shared client.
type Service struct {
	client *client.Client
}

// NewService creates a TMS service on top of c.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// FindCarrierID searches carriers by MC number and returns the identifier of
// the matching carrier node, wherever the answer nests it.
func (s *Service) FindCarrierID(ctx context.Context, cred credential.Credential, mcNumber string) (string, error) {
	var doc any
	q := url.Values{"mcNumber[eq]": {mcNumber}}
	if err := s.client.GetJSON(ctx, cred, "/carriers/list", q, &doc); err != nil {
		return "", &CallError{Op: OpCarrierLookup, Err: err}
	}

	match, ok := extract.FindCorrelated(doc)
	if !ok {
		return "", ErrCarrierNotFound
	}
	return match.ID, nil
}

// CarrierDetails fetches the full carrier record.
func (s *Service) CarrierDetails(ctx context.Context, cred credential.Credential, carrierID string) (*Carrier, error) {
	var resp carrierResponse
	if err := s.client.GetJSON(ctx, cred, "/carriers/"+url.PathEscape(carrierID), nil, &resp); err != nil {
		return nil, &CallError{Op: OpDetailsFetch, Err: err}
	}
	if resp.Details == nil {
		return nil, ErrDetailsMissing
	}
	return resp.Details, nil
}

// LookupCarrier resolves an MC number to its carrier details.
func (s *Service) LookupCarrier(ctx context.Context, cred credential.Credential, mcNumber string) (*Carrier, error) {
	id, err := s.FindCarrierID(ctx, cred, mcNumber)
	if err != nil {
		return nil, err
	}
	return s.CarrierDetails(ctx, cred, id)
}

// AttachCarrierTags attaches tags to a carrier.
func (s *Service) AttachCarrierTags(ctx context.Context, cred credential.Credential, carrierID string, tags ...string) error {
	path := "/tags/attach/carrier/" + url.PathEscape(carrierID)
	if err := s.client.SendJSON(ctx, cred, http.MethodPut, path, tagRequest{TagNames: tags}, nil); err != nil {
		return &CallError{Op: OpTagging, Err: err}
	}
	return nil
}

// TagCarrier looks up the carrier for mcNumber and marks it do-not-use.
// It returns the resolved carrier identifier.
func (s *Service) TagCarrier(ctx context.Context, cred credential.Credential, mcNumber string) (string, error) {
	id, err := s.FindCarrierID(ctx, cred, mcNumber)
	if err != nil {
		return "", err
	}
	return id, s.AttachCarrierTags(ctx, cred, id, DoNotUseTag)
}

// SetMinPay sets the target minimum pay on a shipment.
func (s *Service) SetMinPay(ctx context.Context, cred credential.Credential, shipmentID string, minPay float64) error {
	body := shipmentUpdate{Margin: margin{MinPay: minPay}}
	if err := s.client.SendJSON(ctx, cred, http.MethodPut, "/shipments/"+url.PathEscape(shipmentID), body, nil); err != nil {
		return &CallError{Op: OpSetTargetRate, Err: err}
	}
	return nil
}

// AttachShipmentTags attaches tags to a shipment.
func (s *Service) AttachShipmentTags(ctx context.Context, cred credential.Credential, shipmentID string, tags ...string) error {
	path := "/tags/attach/shipment/" + url.PathEscape(shipmentID)
	if err := s.client.SendJSON(ctx, cred, http.MethodPut, path, tagRequest{TagNames: tags}, nil); err != nil {
		return &CallError{Op: OpApplyTag, Err: err}
	}
	return nil
}

// TargetRate is one parsed "shipmentID,minPay,tag" line.
type TargetRate struct {
	ShipmentID string
	MinPay     string
	Tag        string
}

// ParseTargetRate parses a target-rate line. All three fields are required and
// minPay must be a finite number.
func ParseTargetRate(line string) (TargetRate, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return TargetRate{}, fmt.Errorf("%w: %s", ErrInvalidEntry, line)
	}
	if v, err := strconv.ParseFloat(parts[1], 64); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return TargetRate{}, fmt.Errorf("%w: %s", ErrInvalidEntry, line)
	}
	return TargetRate{ShipmentID: parts[0], MinPay: parts[1], Tag: parts[2]}, nil
}

// MinPayValue returns the numeric minimum pay.
func (t TargetRate) MinPayValue() float64 {
	v, _ := strconv.ParseFloat(t.MinPay, 64)
	return v
}

// ApplyTargetRate sets the minimum pay and attaches the tag. Both calls are
// always made; the error joins whichever of them failed.
func (s *Service) ApplyTargetRate(ctx context.Context, cred credential.Credential, t TargetRate) error {
	rateErr := s.SetMinPay(ctx, cred, t.ShipmentID, t.MinPayValue())
	tagErr := s.AttachShipmentTags(ctx, cred, t.ShipmentID, t.Tag)
	return errors.Join(rateErr, tagErr)
}

// ParseMCNumber trims an MC number line.
func ParseMCNumber(line string) (string, error) {
	mc := strings.TrimSpace(line)
	if mc == "" {
		return "", fmt.Errorf("%w: empty MC number", ErrInvalidEntry)
	}
	return mc, nil
}

type tagRequest struct {
	TagNames []string `json:"tagNames"`
}

type shipmentUpdate struct {
	Margin margin `json:"margin"`
}

type margin struct {
	MinPay float64 `json:"minPay"`
}
