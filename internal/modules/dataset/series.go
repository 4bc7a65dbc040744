// Package dataset loads and exposes the historical Indonesian trade series.
// The source CSV carries monthly export and import totals; the trade balance
// column is derived, never read. A loaded series is immutable and shared by
// every consumer (charts, analytics, forecast alignment checks).
package dataset

import "time"

// Record is one month of the historical series. Values are million USD.
type Record struct {
	Date    time.Time `json:"date"`    // First day of the month, UTC
	Exports float64   `json:"exports"` // Total_Ekspor
	Imports float64   `json:"imports"` // Total_Impor
	Balance float64   `json:"balance"` // Neraca_Perdagangan = Exports - Imports
}

// Series is the cleaned historical dataset: unique months, ascending order,
// balance derived per record.
type Series struct {
	Records []Record
	Path    string // Source file, used as the memoization key
}

// Len returns the number of monthly records.
func (s *Series) Len() int {
	return len(s.Records)
}

// First returns the earliest record. Len must be > 0.
func (s *Series) First() Record {
	return s.Records[0]
}

// Last returns the most recent record. Len must be > 0.
func (s *Series) Last() Record {
	return s.Records[len(s.Records)-1]
}

// LastDate returns the date of the most recent record, or the zero time for
// an empty series.
func (s *Series) LastDate() time.Time {
	if len(s.Records) == 0 {
		return time.Time{}
	}
	return s.Records[len(s.Records)-1].Date
}

// From returns the sub-series from January 1 of year onward. The returned
// series shares backing storage with the receiver and must not be mutated.
func (s *Series) From(year int) *Series {
	cutoff := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range s.Records {
		if !r.Date.Before(cutoff) {
			return &Series{Records: s.Records[i:], Path: s.Path}
		}
	}
	return &Series{Path: s.Path}
}

// Dates returns the record dates as a column.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Date
	}
	return out
}

// ExportValues returns the export totals as a column.
func (s *Series) ExportValues() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Exports
	}
	return out
}

// ImportValues returns the import totals as a column.
func (s *Series) ImportValues() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Imports
	}
	return out
}

// BalanceValues returns the derived trade balances as a column.
func (s *Series) BalanceValues() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Balance
	}
	return out
}
