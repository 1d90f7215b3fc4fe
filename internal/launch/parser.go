package launch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Column names of the launch CSV. The header row must carry the required ones verbatim.
const (
	ColumnFlightNumber    = "Flight Number"
	ColumnSite            = "Launch Site"
	ColumnOutcome         = "class"
	ColumnPayload         = "Payload Mass (kg)"
	ColumnBoosterVersion  = "Booster Version"
	ColumnBoosterCategory = "Booster Version Category"
)

var requiredColumns = []string{ColumnSite, ColumnPayload, ColumnOutcome, ColumnBoosterVersion}

// Header lists the columns written by WriteCSV, in order.
var Header = []string{
	ColumnFlightNumber, ColumnSite, ColumnOutcome, ColumnPayload, ColumnBoosterVersion, ColumnBoosterCategory,
}

// Parse reads launch records from CSV. Unknown columns (including the unnamed
// index column) are ignored. A malformed row fails the whole parse.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("reading launch CSV: empty input")
		}
		return nil, fmt.Errorf("reading launch CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("launch CSV is missing required column %q", col)
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading launch CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("launch CSV line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.New("launch CSV has a header but no rows")
	}

	logger.Debug("parsed launch CSV", "records", len(records), "columns", len(header))
	return records, nil
}

func parseRow(row []string, index map[string]int) (Record, error) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	site := field(ColumnSite)
	if site == "" {
		return Record{}, errors.New("empty launch site")
	}

	payload, err := strconv.ParseFloat(field(ColumnPayload), 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid payload mass %q: %w", field(ColumnPayload), err)
	}
	if payload < 0 {
		return Record{}, fmt.Errorf("negative payload mass %v", payload)
	}

	outcome, err := parseOutcome(field(ColumnOutcome))
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Site:            site,
		PayloadKg:       payload,
		Outcome:         outcome,
		BoosterVersion:  field(ColumnBoosterVersion),
		BoosterCategory: field(ColumnBoosterCategory),
	}

	if v := field(ColumnFlightNumber); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, fmt.Errorf("invalid flight number %q: %w", v, err)
		}
		rec.FlightNumber = n
	}

	return rec, nil
}

// parseOutcome accepts "0" and "1" (and their float spellings, as exported by pandas).
func parseOutcome(s string) (Outcome, error) {
	switch s {
	case "1", "1.0":
		return Success, nil
	case "0", "0.0":
		return Failure, nil
	}
	return Failure, fmt.Errorf("invalid outcome %q, want 0 or 1", s)
}

// WriteCSV writes records in the column layout Parse expects.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing launch CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.FlightNumber),
			r.Site,
			strconv.Itoa(int(r.Outcome)),
			strconv.FormatFloat(r.PayloadKg, 'f', -1, 64),
			r.BoosterVersion,
			r.BoosterCategory,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing launch CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
