package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVOptions configures how a CSV dataset maps onto records.
type CSVOptions struct {
	// RegionColumn is the header name of the region column.
	// Default "region".
	RegionColumn string

	// LocalityColumn is the header name of the locality column.
	// Default "locality".
	LocalityColumn string
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.RegionColumn == "" {
		o.RegionColumn = FieldRegion
	}
	if o.LocalityColumn == "" {
		o.LocalityColumn = FieldLocality
	}
	return o
}

// FromCSV decodes a header-led CSV stream into a collection. The region
// and locality columns are lifted onto the Record struct; every other
// column becomes a payload field.
func FromCSV(r io.Reader, opts CSVOptions) (*Collection, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("records: read csv header: %w", err)
	}

	regionIdx, localityIdx := -1, -1
	for i, name := range header {
		switch name {
		case opts.RegionColumn:
			regionIdx = i
		case opts.LocalityColumn:
			localityIdx = i
		}
	}
	if regionIdx < 0 {
		return nil, fmt.Errorf("records: csv missing region column %q", opts.RegionColumn)
	}
	if localityIdx < 0 {
		return nil, fmt.Errorf("records: csv missing locality column %q", opts.LocalityColumn)
	}

	var recs []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("records: read csv line %d: %w", line, err)
		}

		rec := Record{
			Region:   row[regionIdx],
			Locality: row[localityIdx],
			Fields:   make(map[string]string, len(row)-2),
		}
		for i, v := range row {
			if i == regionIdx || i == localityIdx || i >= len(header) {
				continue
			}
			rec.Fields[header[i]] = v
		}
		recs = append(recs, rec)
	}

	return &Collection{records: recs}, nil
}

// FromCSVFile decodes a CSV file into a collection.
func FromCSVFile(path string, opts CSVOptions) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("records: open dataset: %w", err)
	}
	defer f.Close()
	return FromCSV(f, opts)
}
