package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/client"
	"github.com/Sternrassler/freight-batch/pkg/lanerate"
	"github.com/Sternrassler/freight-batch/pkg/tms"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const notAvailable = "N/A"

// NormalizeCarrier flattens a carrier lookup outcome.
func NormalizeCarrier(mcNumber string, o batch.Outcome[*tms.Carrier]) CarrierRecord {
	if !o.OK() || o.Value == nil {
		err := o.Err
		if err == nil {
			err = tms.ErrDetailsMissing
		}
		msg := describe(err)
		switch {
		case errors.Is(err, tms.ErrCarrierNotFound):
			msg = "Carrier not found"
		case errors.Is(err, tms.ErrDetailsMissing):
			msg = "Carrier details missing"
		}
		return CarrierRecord{MCNumber: mcNumber, Status: StatusError, Message: msg}
	}

	c := o.Value
	rec := CarrierRecord{
		MCNumber:          mcNumber,
		Status:            StatusSuccess,
		Name:              orNA(c.Name.String()),
		CarrierStatus:     "Unknown",
		MCNumberConfirmed: orNA(c.MCNumber.String()),
		DOTNumber:         orNA(c.DOTNumber.String()),
		Address:           notAvailable,
		Equipment:         formatEquipment(c.Equipment),
		Insurance:         formatInsurance(c.Insurance),
		CommonAuthority:   notAvailable,
		ContractAuthority: notAvailable,
		BrokerAuthority:   notAvailable,
	}
	if c.Status != nil && c.Status.Description != "" {
		rec.CarrierStatus = c.Status.Description.String()
	}
	if addr, ok := c.PrimaryAddress(); ok {
		rec.Address = strings.Join([]string{
			addr.Line1.String(), addr.City.String(), addr.State.String(), addr.Zip.String(), addr.Country.String(),
		}, ", ")
	}
	if a := c.Authority; a != nil {
		rec.CommonAuthority = authority(a.CommonAuthority)
		rec.ContractAuthority = authority(a.ContractAuthority)
		rec.BrokerAuthority = authority(a.BrokerAuthority)
	}
	return rec
}

// NormalizeTagCarrier renders a carrier tagging outcome as a status line.
func NormalizeTagCarrier(operation, mcNumber string, o batch.Outcome[string]) UpdateRecord {
	rec := UpdateRecord{Identifier: mcNumber, Operation: operation}
	prefix := "MC " + mcNumber + ": "

	switch {
	case o.OK():
		rec.Success = true
		rec.Message = prefix + "Tagged successfully"
	case errors.Is(o.Err, tms.ErrCarrierNotFound):
		rec.Message = prefix + "Carrier not found"
	default:
		var ce *tms.CallError
		if errors.As(o.Err, &ce) && ce.Op == tms.OpTagging {
			rec.Message = prefix + "Tagging failed - " + client.Detail(ce.Err)
		} else {
			rec.Message = prefix + "Error - " + describe(o.Err)
		}
	}
	rec.Status = statusOf(rec.Success)
	return rec
}

// NormalizeTargetRate renders a shipment target-rate outcome. line is the raw
// input, used when it could not be parsed.
func NormalizeTargetRate(operation, line string, t tms.TargetRate, o batch.Outcome[struct{}]) UpdateRecord {
	rec := UpdateRecord{
		Identifier: t.ShipmentID,
		Operation:  operation,
		MinPay:     t.MinPay,
		Tag:        t.Tag,
	}

	switch {
	case o.OK():
		rec.Success = true
		rec.Message = t.ShipmentID + ": Success"
	case errors.Is(o.Err, tms.ErrInvalidEntry):
		if rec.Identifier == "" {
			rec.Identifier = strings.TrimSpace(strings.Split(line, ",")[0])
		}
		rec.Message = "Skipping invalid entry: " + line
	default:
		rec.Message = t.ShipmentID + ": Failed - " + describe(o.Err)
	}
	rec.Status = statusOf(rec.Success)
	return rec
}

// NormalizeLane renders a lane-rate outcome.
func NormalizeLane(line string, lane lanerate.Lane, o batch.Outcome[lanerate.Rate]) LaneRecord {
	rec := LaneRecord{Input: line, Status: StatusError}

	switch {
	case errors.Is(o.Err, lanerate.ErrInvalidFormat):
		rec.Outcome = LaneInvalidFormat
	case o.OK():
		rec.Lane = lane.String()
		rec.Status = StatusSuccess
		rec.Outcome = LaneRate
		rec.Mileage = o.Value.Mileage.String()
		rec.RateUSD = o.Value.RateUSD.String()
		rec.LowUSD = o.Value.LowUSD.String()
		rec.FuelSurcharge = o.Value.FuelSurcharge.String()
	case errors.Is(o.Err, lanerate.ErrNoData):
		rec.Lane = lane.String()
		rec.Outcome = LaneNoData
	case isHTTPFailure(client.StatusOf(o.Err)):
		rec.Lane = lane.String()
		rec.Outcome = LaneAPIError
		rec.StatusCode = client.StatusOf(o.Err)
		rec.Message = client.Detail(o.Err)
	default:
		rec.Lane = lane.String()
		rec.Outcome = LaneError
		rec.Message = describe(o.Err)
	}
	rec.Result = rec.Line()
	return rec
}

// isHTTPFailure reports whether status is a non-2xx answer. A 2xx status on
// an error means the body was unusable, which is not an API error.
func isHTTPFailure(status int) bool {
	return status != 0 && (status < 200 || status > 299)
}

// describe renders err for a record message.
func describe(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var parts []string
		for _, e := range joined.Unwrap() {
			parts = append(parts, describe(e))
		}
		return strings.Join(parts, "; ")
	}
	var ce *tms.CallError
	if errors.As(err, &ce) {
		return ce.Op + " - " + client.Detail(ce.Err)
	}
	return client.Detail(err)
}

func statusOf(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusError
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func authority(v any) string {
	if v == nil {
		return notAvailable
	}
	return orNA(fmt.Sprint(v))
}

func formatEquipment(items []tms.Equipment) string {
	if len(items) == 0 {
		return notAvailable
	}
	parts := make([]string, 0, len(items))
	for _, e := range items {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%sx %s %s", e.Qty, e.Size, e.Type)))
	}
	return strings.Join(parts, ", ")
}

func formatInsurance(items []tms.Insurance) string {
	if len(items) == 0 {
		return notAvailable
	}
	p := message.NewPrinter(language.AmericanEnglish)
	parts := make([]string, 0, len(items))
	for _, i := range items {
		parts = append(parts, fmt.Sprintf("%s: %s (Exp: %s)", i.Type, currency(p, i.Amount.String()), i.ExpirationDate))
	}
	return strings.Join(parts, "; ")
}

// currency renders an amount with grouped thousands, e.g. "$1,000,000".
func currency(p *message.Printer, amount string) string {
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return orNA(amount)
	}
	return "$" + p.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2)))
}
