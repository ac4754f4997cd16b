package operation

import (
	"context"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/Sternrassler/freight-batch/pkg/lanerate"
	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/Sternrassler/freight-batch/pkg/tms"
)

// Partner names used in Info and credential wiring.
const (
	PartnerTMS      = "tms"
	PartnerLaneRate = "lane-rate"
)

// NewCheckMC looks up carriers by MC number and reports their details.
func NewCheckMC(svc *tms.Service) Operation {
	return &pipeline[string, *tms.Carrier]{
		info: Info{
			Name:        CheckMC,
			Title:       "Check MC Numbers",
			Description: "Look up carrier details by MC number",
			Placeholder: "Enter MC Numbers (one per line):\n123456\n789012",
			Family:      report.FamilyCarrier,
			Partner:     PartnerTMS,
		},
		parse: tms.ParseMCNumber,
		work:  svc.LookupCarrier,
		normalize: func(line, mc string, o batch.Outcome[*tms.Carrier]) report.Record {
			if mc == "" {
				mc = line
			}
			return report.NormalizeCarrier(mc, o)
		},
	}
}

// NewTagCarrier marks carriers found by MC number as do-not-use.
func NewTagCarrier(svc *tms.Service) Operation {
	return &pipeline[string, string]{
		info: Info{
			Name:        TagCarrier,
			Title:       "Tag Carrier Do Not Use",
			Description: `Mark carriers with "donotuse" tag`,
			Placeholder: "Enter MC Numbers (one per line):\n123456\n789012",
			Family:      report.FamilyUpdate,
			Partner:     PartnerTMS,
		},
		parse: tms.ParseMCNumber,
		work:  svc.TagCarrier,
		normalize: func(line, mc string, o batch.Outcome[string]) report.Record {
			if mc == "" {
				mc = line
			}
			return report.NormalizeTagCarrier(string(TagCarrier), mc, o)
		},
	}
}

// NewTargetRateTag sets shipment target rates and applies a tag.
func NewTargetRateTag(svc *tms.Service) Operation {
	return &pipeline[tms.TargetRate, struct{}]{
		info: Info{
			Name:        TargetRateTag,
			Title:       "Enter Target Rate & Tag",
			Description: "Set target rates and apply tags to shipments",
			Placeholder: "Enter ShipmentID,MinPay,Tag (one per line):\nSHIP123,1500,OPS1\nSHIP456,2000,OPS2",
			Family:      report.FamilyUpdate,
			Partner:     PartnerTMS,
		},
		parse: tms.ParseTargetRate,
		work: func(ctx context.Context, cred credential.Credential, t tms.TargetRate) (struct{}, error) {
			return struct{}{}, svc.ApplyTargetRate(ctx, cred, t)
		},
		normalize: func(line string, t tms.TargetRate, o batch.Outcome[struct{}]) report.Record {
			return report.NormalizeTargetRate(string(TargetRateTag), line, t, o)
		},
	}
}

// NewDATRates retrieves spot market rates for lanes.
func NewDATRates(svc *lanerate.Service) Operation {
	return &pipeline[lanerate.Lane, lanerate.Rate]{
		info: Info{
			Name:        DATRates,
			Title:       "Get DAT Rates",
			Description: "Retrieve market rates from DAT API",
			Placeholder: "Enter lanes (one per line):\nCHICAGO,IL,ATLANTA,GA,V\nDALLAS,TX,HOUSTON,TX,R",
			Family:      report.FamilyLane,
			Partner:     PartnerLaneRate,
		},
		parse: lanerate.ParseLane,
		work:  svc.Lookup,
		normalize: func(line string, lane lanerate.Lane, o batch.Outcome[lanerate.Rate]) report.Record {
			return report.NormalizeLane(line, lane, o)
		},
	}
}
