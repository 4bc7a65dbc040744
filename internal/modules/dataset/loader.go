package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/cache"
	"github.com/aldikusuma/neraca/internal/events"
)

// monthNumbers maps the Indonesian month names used in the source CSV to
// calendar month numbers. The mapping is exact: no trimming beyond
// surrounding whitespace, no case folding, no locale fallback.
var monthNumbers = map[string]time.Month{
	"Januari":   time.January,
	"Februari":  time.February,
	"Maret":     time.March,
	"April":     time.April,
	"Mei":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"Agustus":   time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Desember":  time.December,
}

// Columns the loader requires. Extra columns in the CSV are ignored.
const (
	colYear    = "Tahun"
	colMonth   = "Bulan"
	colExports = "Total_Ekspor"
	colImports = "Total_Impor"
)

// Loader reads the historical dataset and memoizes it per path. The first
// successful load for a path is reused for the lifetime of the process; only
// failures are retried.
type Loader struct {
	memo *cache.Memo[string, *Series]
	bus  *events.Bus
	log  zerolog.Logger
}

// NewLoader creates a new dataset loader. The bus is optional.
func NewLoader(bus *events.Bus, log zerolog.Logger) *Loader {
	return &Loader{
		memo: cache.NewMemo[string, *Series](),
		bus:  bus,
		log:  log.With().Str("service", "dataset").Logger(),
	}
}

// Load returns the cleaned series for path, reading the file on first use.
func (l *Loader) Load(path string) (*Series, error) {
	return l.memo.Do(path, func() (*Series, error) {
		series, err := Load(path)
		if err != nil {
			l.log.Error().Err(err).Str("path", path).Msg("Failed to load historical dataset")
			return nil, err
		}

		l.log.Info().
			Str("path", path).
			Int("rows", series.Len()).
			Str("first", series.First().Date.Format("2006-01")).
			Str("last", series.Last().Date.Format("2006-01")).
			Msg("Historical dataset loaded")

		if l.bus != nil {
			l.bus.Emit(events.DatasetLoaded, "dataset", &events.DatasetLoadedData{
				Path:  path,
				Rows:  series.Len(),
				First: series.First().Date.Format("2006-01"),
				Last:  series.Last().Date.Format("2006-01"),
			})
		}

		return series, nil
	})
}

// CacheStats exposes memoization counters for the status endpoint.
func (l *Loader) CacheStats() cache.Stats {
	return l.memo.Stats()
}

// Load reads and cleans the dataset at path without memoization.
//
// Cleaning steps, in order:
//  1. header-addressed column lookup (Tahun, Bulan, Total_Ekspor, Total_Impor)
//  2. Indonesian month name to month number mapping
//  3. trade balance derivation (exports - imports)
//  4. first-of-month UTC timestamps, ascending sort, duplicate rejection
func Load(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	records, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	return &Series{Records: records, Path: path}, nil
}

// parse reads cleaned records from CSV content.
func parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	line := 1 // header consumed
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}

		record, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformed)
	}

	// Chronological order, then reject duplicate months. Sorting first makes
	// duplicates adjacent, and guarantees the strictly-increasing invariant.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	for i := 1; i < len(records); i++ {
		if records[i].Date.Equal(records[i-1].Date) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePeriod, records[i].Date.Format("2006-01"))
		}
	}

	return records, nil
}

// columnIndex resolves required column positions from the header row.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, 4)
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{colYear, colMonth, colExports, colImports} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, required)
		}
	}

	return cols, nil
}

// parseRow converts one CSV row to a Record.
func parseRow(row []string, cols map[string]int, line int) (Record, error) {
	field := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(row) {
			return "", fmt.Errorf("%w: line %d: missing value for %q", ErrMalformed, line, name)
		}
		return strings.TrimSpace(row[idx]), nil
	}

	yearStr, err := field(colYear)
	if err != nil {
		return Record{}, err
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line %d: invalid year %q", ErrMalformed, line, yearStr)
	}

	monthStr, err := field(colMonth)
	if err != nil {
		return Record{}, err
	}
	month, ok := monthNumbers[monthStr]
	if !ok {
		return Record{}, &UnmappedMonthError{Label: monthStr, Line: line}
	}

	exportsStr, err := field(colExports)
	if err != nil {
		return Record{}, err
	}
	exports, err := strconv.ParseFloat(exportsStr, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line %d: invalid export total %q", ErrMalformed, line, exportsStr)
	}

	importsStr, err := field(colImports)
	if err != nil {
		return Record{}, err
	}
	imports, err := strconv.ParseFloat(importsStr, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line %d: invalid import total %q", ErrMalformed, line, importsStr)
	}

	return Record{
		Date:    time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Exports: exports,
		Imports: imports,
		Balance: exports - imports,
	}, nil
}

// MonthNumber maps an Indonesian month name to its calendar number.
// Exposed for validation tooling; the loader uses the same table.
func MonthNumber(label string) (time.Month, error) {
	month, ok := monthNumbers[label]
	if !ok {
		return 0, &UnmappedMonthError{Label: label}
	}
	return month, nil
}
