// Package report turns settled batch outcomes into display records and
// renders finished batches as JSON or CSV.
//
// Each operation family has its own record type. A failed item produces a
// record that carries only the identifier and the failure message; domain
// fields stay empty.
package report

import "fmt"

// Family identifies the record shape an operation produces.
type Family string

const (
	FamilyCarrier Family = "carrier"
	FamilyUpdate  Family = "update"
	FamilyLane    Family = "lane"
)

// Record status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record is one display row of a batch.
type Record interface {
	Kind() Family
	Header() []string
	Row() []string
	Failed() bool
}

var (
	carrierHeader = []string{
		"MC Number", "Status", "Message", "Name", "Carrier Status", "MC Number Confirmed",
		"DOT Number", "Address", "Equipment", "Insurance",
		"Common Authority", "Contract Authority", "Broker Authority",
	}
	updateHeader = []string{"Identifier", "Operation", "Status", "Message", "Min Pay", "Tag"}
	laneHeader   = []string{"Lane", "Mileage", "Rate USD", "Low USD", "Fuel Surcharge USD", "Result"}
)

// HeaderFor returns the column header of a family.
func HeaderFor(f Family) ([]string, error) {
	switch f {
	case FamilyCarrier:
		return carrierHeader, nil
	case FamilyUpdate:
		return updateHeader, nil
	case FamilyLane:
		return laneHeader, nil
	default:
		return nil, fmt.Errorf("unknown record family %q", f)
	}
}

// CarrierRecord is the flattened result of a carrier lookup.
type CarrierRecord struct {
	MCNumber          string `json:"mcNumber"`
	Status            string `json:"status"`
	Message           string `json:"message,omitempty"`
	Name              string `json:"name,omitempty"`
	CarrierStatus     string `json:"carrierStatus,omitempty"`
	MCNumberConfirmed string `json:"mcNumberConfirmed,omitempty"`
	DOTNumber         string `json:"dotNumber,omitempty"`
	Address           string `json:"address,omitempty"`
	Equipment         string `json:"equipment,omitempty"`
	Insurance         string `json:"insurance,omitempty"`
	CommonAuthority   string `json:"commonAuthority,omitempty"`
	ContractAuthority string `json:"contractAuthority,omitempty"`
	BrokerAuthority   string `json:"brokerAuthority,omitempty"`
}

func (r CarrierRecord) Kind() Family     { return FamilyCarrier }
func (r CarrierRecord) Header() []string { return carrierHeader }
func (r CarrierRecord) Failed() bool     { return r.Status != StatusSuccess }

func (r CarrierRecord) Row() []string {
	return []string{
		r.MCNumber, r.Status, r.Message, r.Name, r.CarrierStatus, r.MCNumberConfirmed,
		r.DOTNumber, r.Address, r.Equipment, r.Insurance,
		r.CommonAuthority, r.ContractAuthority, r.BrokerAuthority,
	}
}

// UpdateRecord is the result of a tag or target-rate update.
type UpdateRecord struct {
	Identifier string `json:"identifier"`
	Operation  string `json:"operation"`
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	MinPay     string `json:"minPay,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

func (r UpdateRecord) Kind() Family     { return FamilyUpdate }
func (r UpdateRecord) Header() []string { return updateHeader }
func (r UpdateRecord) Failed() bool     { return !r.Success }

func (r UpdateRecord) Row() []string {
	return []string{r.Identifier, r.Operation, r.Status, r.Message, r.MinPay, r.Tag}
}

// LaneOutcome classifies a lane record.
type LaneOutcome string

const (
	LaneRate          LaneOutcome = "rate"
	LaneInvalidFormat LaneOutcome = "invalid_format"
	LaneNoData        LaneOutcome = "no_data"
	LaneAPIError      LaneOutcome = "api_error"
	LaneError         LaneOutcome = "error"
)

// LaneRecord is the result of one lane-rate line.
type LaneRecord struct {
	Input         string      `json:"input"`
	Lane          string      `json:"lane,omitempty"`
	Status        string      `json:"status"`
	Outcome       LaneOutcome `json:"outcome"`
	StatusCode    int         `json:"statusCode,omitempty"`
	Mileage       string      `json:"mileage,omitempty"`
	RateUSD       string      `json:"rateUsd,omitempty"`
	LowUSD        string      `json:"lowUsd,omitempty"`
	FuelSurcharge string      `json:"fuelSurchargeUsd,omitempty"`
	Message       string      `json:"message,omitempty"`
	Result        string      `json:"result"`
}

func (r LaneRecord) Kind() Family     { return FamilyLane }
func (r LaneRecord) Header() []string { return laneHeader }
func (r LaneRecord) Failed() bool     { return r.Outcome != LaneRate }

func (r LaneRecord) Row() []string {
	lane := r.Lane
	if lane == "" {
		lane = r.Input
	}
	return []string{lane, r.Mileage, r.RateUSD, r.LowUSD, r.FuelSurcharge, r.Line()}
}

// Line renders the record in the one-line lane format, e.g.
// "CHICAGO,IL,ATLANTA,GA,VAN:715,2100,1800,150".
func (r LaneRecord) Line() string {
	switch r.Outcome {
	case LaneRate:
		return fmt.Sprintf("%s:%s,%s,%s,%s", r.Lane, r.Mileage, r.RateUSD, r.LowUSD, r.FuelSurcharge)
	case LaneInvalidFormat:
		return r.Input + ": Invalid format"
	case LaneNoData:
		return r.Lane + ": No data returned"
	case LaneAPIError:
		return fmt.Sprintf("%s: API error %d", r.Lane, r.StatusCode)
	default:
		return fmt.Sprintf("%s: Error - %s", r.Lane, r.Message)
	}
}
