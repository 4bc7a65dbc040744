// Package charts assembles the forecast table and chart specifications.
// Every presentation decision lives here: trace order, colors, dash
// patterns, number formatting, reference lines. The embedded dashboard is a
// dumb renderer over the JSON these types produce.
package charts

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/modules/analytics"
	"github.com/aldikusuma/neraca/internal/modules/dataset"
	"github.com/aldikusuma/neraca/internal/modules/forecast"
)

// Unit is the value unit for every table cell and chart axis.
const Unit = "Juta USD"

// DefaultHistoryFromYear bounds the history shown behind the forecast.
const DefaultHistoryFromYear = 2020

// Dash patterns understood by the dashboard renderer.
const (
	DashSolid = "solid"
	DashDash  = "dash"
	DashDot   = "dot"
)

// Trace is one drawable line.
type Trace struct {
	Name   string    `json:"name"`
	Dates  []string  `json:"dates"` // YYYY-MM-DD
	Values []float64 `json:"values"`
	Color  string    `json:"color"`
	Dash   string    `json:"dash"`
}

// RefLine is a fixed horizontal reference line.
type RefLine struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Dash  string  `json:"dash"`
}

// ChartSpec describes one chart completely.
type ChartSpec struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	YAxis    string    `json:"y_axis"`
	Legend   string    `json:"legend"`
	Traces   []Trace   `json:"traces"`
	RefLines []RefLine `json:"ref_lines,omitempty"`
}

// TableRow is one forecast month, carrying both raw and formatted values.
type TableRow struct {
	Period           string  `json:"period"` // YYYY-MM
	Exports          float64 `json:"exports"`
	Imports          float64 `json:"imports"`
	Balance          float64 `json:"balance"`
	ExportsFormatted string  `json:"exports_formatted"`
	ImportsFormatted string  `json:"imports_formatted"`
	BalanceFormatted string  `json:"balance_formatted"`
}

// RunView is everything the dashboard renders after a forecast run.
type RunView struct {
	Table        []TableRow `json:"table"`
	TradeChart   *ChartSpec `json:"trade_chart"`
	BalanceChart *ChartSpec `json:"balance_chart"`
}

// Options control the history window and the optional smoothing overlay.
type Options struct {
	HistoryFromYear     int
	MovingAverageWindow int // 0 disables the overlay traces
}

// Service builds run views.
type Service struct {
	log zerolog.Logger
}

// NewService creates the charts service.
func NewService(log zerolog.Logger) *Service {
	return &Service{log: log.With().Str("service", "charts").Logger()}
}

// BuildRunView assembles the table and both charts for one forecast result.
func (s *Service) BuildRunView(series *dataset.Series, result *forecast.Result, opts Options) *RunView {
	if opts.HistoryFromYear == 0 {
		opts.HistoryFromYear = DefaultHistoryFromYear
	}

	history := series.From(opts.HistoryFromYear)
	histDates := formatDates(history.Dates())
	forecastDates := formatDates(result.Dates)

	trade := &ChartSpec{
		Key:    "trade",
		Title:  "Prediksi Ekspor (Biru) vs Impor (Merah)",
		YAxis:  Unit,
		Legend: "Keterangan",
		Traces: []Trace{
			{Name: "Ekspor Aktual", Dates: histDates, Values: history.ExportValues(), Color: "blue", Dash: DashSolid},
			{Name: "Ekspor Prediksi", Dates: forecastDates, Values: result.Exports, Color: "blue", Dash: DashDash},
			{Name: "Impor Aktual", Dates: histDates, Values: history.ImportValues(), Color: "red", Dash: DashSolid},
			{Name: "Impor Prediksi", Dates: forecastDates, Values: result.Imports, Color: "red", Dash: DashDash},
		},
	}

	balance := &ChartSpec{
		Key:    "balance",
		Title:  "Prediksi Neraca Perdagangan (Hijau)",
		YAxis:  Unit,
		Legend: "Keterangan",
		Traces: []Trace{
			{Name: "Neraca Aktual", Dates: histDates, Values: history.BalanceValues(), Color: "green", Dash: DashSolid},
			{Name: "Neraca Prediksi", Dates: forecastDates, Values: result.Balance, Color: "green", Dash: DashDash},
		},
		RefLines: []RefLine{
			{Value: 0, Color: "black", Dash: DashDot},
		},
	}

	if w := opts.MovingAverageWindow; w > 1 {
		if t := s.overlayTrace(fmt.Sprintf("Ekspor MA%d", w), "skyblue", series, series.ExportValues(), history.Len(), w); t != nil {
			trade.Traces = append(trade.Traces, *t)
		}
		if t := s.overlayTrace(fmt.Sprintf("Impor MA%d", w), "salmon", series, series.ImportValues(), history.Len(), w); t != nil {
			trade.Traces = append(trade.Traces, *t)
		}
		if t := s.overlayTrace(fmt.Sprintf("Neraca MA%d", w), "lightgreen", series, series.BalanceValues(), history.Len(), w); t != nil {
			balance.Traces = append(balance.Traces, *t)
		}
	}

	return &RunView{
		Table:        buildTable(result),
		TradeChart:   trade,
		BalanceChart: balance,
	}
}

// overlayTrace computes a moving average over the full series, then trims it
// to the displayed window and drops talib's leading zeros.
func (s *Service) overlayTrace(name, color string, series *dataset.Series, values []float64, windowLen, w int) *Trace {
	ma := analytics.TrailingAverage(values, w)
	if ma == nil {
		return nil
	}

	start := series.Len() - windowLen
	if start < w-1 {
		start = w - 1
	}
	if start >= series.Len() {
		return nil
	}

	return &Trace{
		Name:   name,
		Dates:  formatDates(series.Dates()[start:]),
		Values: ma[start:],
		Color:  color,
		Dash:   DashDot,
	}
}

func buildTable(result *forecast.Result) []TableRow {
	rows := make([]TableRow, result.Horizon)
	for i := 0; i < result.Horizon; i++ {
		rows[i] = TableRow{
			Period:           result.Dates[i].Format("2006-01"),
			Exports:          result.Exports[i],
			Imports:          result.Imports[i],
			Balance:          result.Balance[i],
			ExportsFormatted: FormatValue(result.Exports[i]),
			ImportsFormatted: FormatValue(result.Imports[i]),
			BalanceFormatted: FormatValue(result.Balance[i]),
		}
	}
	return rows
}

// FormatValue renders a value the way the forecast table shows it.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.2f %s", v, Unit)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
