package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteCSV writes the family header and one row per record. Commas inside
// values are replaced with a space so columns stay aligned for consumers that
// split on commas.
func WriteCSV(w io.Writer, result *BatchResult) error {
	header, err := HeaderFor(result.Family)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range result.Records {
		if rec.Kind() != result.Family {
			return fmt.Errorf("record %d: family %q in %q batch", i, rec.Kind(), result.Family)
		}
		if err := cw.Write(sanitize(rec.Row())); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the download name of a batch export.
func FileName(result *BatchResult) string {
	return result.Operation + "-results.csv"
}

func sanitize(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.ReplaceAll(v, ",", " ")
	}
	return out
}
