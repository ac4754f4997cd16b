package tms

import (
	"bytes"
	"encoding/json"
)

// Carrier is the detail record of one carrier. Every field is optional.
type Carrier struct {
	Name      Text        `json:"name"`
	MCNumber  Text        `json:"mcNumber"`
	DOTNumber Text        `json:"dotNumber"`
	Status    *Described  `json:"status"`
	Address   []Address   `json:"address"`
	Equipment []Equipment `json:"equipment"`
	Insurance []Insurance `json:"insurance"`
	Authority *Authority  `json:"authority"`
}

// Described is a coded value with a display description.
type Described struct {
	Description Text `json:"description"`
}

// Valued is a lookup value such as an equipment size.
type Valued struct {
	Value Text `json:"value"`
}

// Address is one carrier address.
type Address struct {
	Line1     Text `json:"line1"`
	City      Text `json:"city"`
	State     Text `json:"state"`
	Zip       Text `json:"zip"`
	Country   Text `json:"country"`
	IsPrimary bool `json:"isPrimary"`
}

// Equipment is one equipment entry.
type Equipment struct {
	Qty  Text    `json:"qty"`
	Size *Valued `json:"size"`
	Type *Valued `json:"type"`
}

// Insurance is one insurance policy.
type Insurance struct {
	Type           *Valued `json:"type"`
	Amount         Text    `json:"amount"`
	ExpirationDate Text    `json:"expirationDate"`
}

// Authority carries the operating authority flags. Values are passed through
// as decoded: strings, booleans or numbers.
type Authority struct {
	CommonAuthority   any `json:"commonAuthority"`
	ContractAuthority any `json:"contractAuthority"`
	BrokerAuthority   any `json:"brokerAuthority"`
}

// PrimaryAddress returns the first address flagged primary.
func (c *Carrier) PrimaryAddress() (Address, bool) {
	for _, a := range c.Address {
		if a.IsPrimary {
			return a, true
		}
	}
	return Address{}, false
}

type carrierResponse struct {
	Details *Carrier `json:"details"`
}

// Text is a JSON scalar read as a string. Numbers keep their literal form and
// null decodes to "".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the text.
func (t Text) String() string {
	return string(t)
}

// String returns the wrapped value, or "" when v is nil.
func (v *Valued) String() string {
	if v == nil {
		return ""
	}
	return string(v.Value)
}
