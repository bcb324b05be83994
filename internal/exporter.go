package internal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportOptions carries what the report-style exports need besides the records
type ExportOptions struct {
	Year     int
	Currency CurrencyCode
	Now      time.Time
}

// Exporter writes subscriptions in one file format
type Exporter interface {
	Export(w io.Writer, subs []Subscription, opts ExportOptions) error
}

// ExporterFunc is a function that implements Exporter
type ExporterFunc func(w io.Writer, subs []Subscription, opts ExportOptions) error

func (f ExporterFunc) Export(w io.Writer, subs []Subscription, opts ExportOptions) error {
	return f(w, subs, opts)
}

var exporters = map[string]Exporter{
	"json": ExporterFunc(ExportJSON),
	"csv":  ExporterFunc(ExportCSV),
	"xlsx": ExporterFunc(ExportXLSX),
}

// GetExporter returns the exporter for the given format
func GetExporter(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format: %s (available: %v)", format, ExportFormats())
	}
	return e, nil
}

// ExportFormats returns the supported export formats, sorted
func ExportFormats() []string {
	var formats []string
	for name := range exporters {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// ExportFileName is the default file name for an export format
func ExportFileName(format string) string {
	if format == "xlsx" {
		return "subscription-report.xlsx"
	}
	return "subscriptions." + format
}

// ExportJSON writes the records as an indented JSON array
func ExportJSON(w io.Writer, subs []Subscription, _ ExportOptions) error {
	if subs == nil {
		subs = []Subscription{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subs); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// csvHeaders are the record fields in export order
var csvHeaders = []string{
	"id", "name", "provider", "category", "icon", "startDate",
	"billingCycle", "amount", "currency", "notes", "activeStatus", "autoRenew",
}

func csvRow(s Subscription) []string {
	return []string{
		s.ID,
		s.Name,
		s.Provider,
		s.Category,
		string(s.Icon),
		s.StartDate.ISO(),
		string(s.BillingCycle),
		s.Amount.String(),
		string(s.Currency),
		s.Notes,
		strconv.FormatBool(s.ActiveStatus),
		strconv.FormatBool(s.AutoRenew),
	}
}

// ExportCSV writes a header row followed by one row per record. An empty list
// produces no output at all.
func ExportCSV(w io.Writer, subs []Subscription, _ ExportOptions) error {
	if len(subs) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, s := range subs {
		if err := cw.Write(csvRow(s)); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	subscriptionsSheet = "Subscriptions"
	summarySheet       = "Summary"
)

// ExportXLSX writes a report workbook: the raw records on one sheet (readable
// by ImportXLSX) and the dashboard figures on a second one.
func ExportXLSX(w io.Writer, subs []Subscription, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", subscriptionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeRecordsSheet(f, subs); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, subs, opts); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func writeRecordsSheet(f *excelize.File, subs []Subscription) error {
	header := make([]any, len(csvHeaders))
	for i, h := range csvHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(subscriptionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, s := range subs {
		row := []any{
			s.ID, s.Name, s.Provider, s.Category, string(s.Icon), s.StartDate.ISO(),
			string(s.BillingCycle), s.Amount.InexactFloat64(), string(s.Currency), s.Notes,
			strconv.FormatBool(s.ActiveStatus), strconv.FormatBool(s.AutoRenew),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(subscriptionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return nil
}

// sheetWriter appends rows to a sheet, tracking the current row
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (sw *sheetWriter) append(values ...any) {
	if sw.err != nil {
		return
	}
	sw.row++
	cell, err := excelize.CoordinatesToCellName(1, sw.row)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sw.sheet, cell, &values); err != nil {
		sw.err = fmt.Errorf("writing %s row %d: %w", sw.sheet, sw.row, err)
	}
}

func writeSummarySheet(f *excelize.File, subs []Subscription, opts ExportOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	year := opts.Year
	if year == 0 {
		year = now.Year()
	}
	d := BuildDashboard(subs, nil, year, opts.Currency)
	t := d.Totals.Original

	sw := &sheetWriter{f: f, sheet: summarySheet}
	sw.append("Subsight - Subscription Report")
	sw.append("Report generated on", now.Format("2006-01-02"))
	sw.append("Total Subscriptions", len(subs))
	sw.append("Currency", string(d.Currency))
	sw.append()
	sw.append("Monthly cost", t.Monthly.InexactFloat64())
	sw.append("Annual cost", t.Annual.InexactFloat64())
	sw.append("Active subscriptions", t.Count)
	sw.append()
	sw.append("Category", "Annual cost", "Color slot")
	for _, e := range d.Breakdown.Entries {
		slot, _ := d.Colors.Lookup(e.Category)
		sw.append(e.Category, e.AnnualCost.InexactFloat64(), slot)
	}
	sw.append("Total", d.Breakdown.TotalAnnualCost.InexactFloat64())
	sw.append()
	sw.append("Month", "Projected spend")
	for _, m := range d.Timeline {
		sw.append(m.Label(), m.Total.InexactFloat64())
	}
	sw.append()
	sw.append("Year", "Annual run-rate")
	for _, y := range d.Trend {
		sw.append(y.Year, y.Cost.InexactFloat64())
	}
	if sw.err != nil {
		return sw.err
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}
	return nil
}
