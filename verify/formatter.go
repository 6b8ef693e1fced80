package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
)

// Formats lists the supported output formats
var Formats = []string{FormatTable, FormatJSON, FormatCBOR}

// Formatter formats check results for display
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Entry converts a result into its report form
func (f *Formatter) Entry(r *PackageResult) ReportEntry {
	e := ReportEntry{
		Path:      r.Path,
		Size:      r.Size,
		ContentID: r.ContentID,
		Header:    "-",
		Metadata:  "-",
		Checksum:  r.Checksum.String(),
		Passed:    r.Passed(),
	}
	if r.Invalid {
		e.Header = "invalid pkg"
	}
	if r.HeaderChecked {
		e.Header = r.Header.String()
	}
	if r.Truncated {
		e.Metadata = "size"
	}
	if r.MetaChecked {
		e.Metadata = r.Meta.String()
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}

// Report builds the serializable report for results. Nil results, left by a
// cancelled run, are skipped.
func (f *Formatter) Report(results []*PackageResult) *Report {
	rep := &Report{Packages: make([]ReportEntry, 0, len(results))}
	for _, r := range results {
		if r == nil {
			continue
		}
		e := f.Entry(r)
		rep.Packages = append(rep.Packages, e)
		rep.Checked++
		if !e.Passed {
			rep.Failed++
		}
	}
	return rep
}

// FormatJSON renders results as indented JSON
func (f *Formatter) FormatJSON(results []*PackageResult) ([]byte, error) {
	b, err := json.MarshalIndent(f.Report(results), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return b, nil
}

// FormatCBOR renders results as CBOR
func (f *Formatter) FormatCBOR(results []*PackageResult) ([]byte, error) {
	b, err := cbor.Marshal(f.Report(results))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CBOR report: %w", err)
	}
	return b, nil
}

// WriteTable renders results as a table, one row per package
func (f *Formatter) WriteTable(w io.Writer, results []*PackageResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Package name", "Content ID", "Header", "Metadata", "Checksum"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, r := range results {
		if r == nil {
			continue
		}
		e := f.Entry(r)
		checksum := e.Checksum
		if e.Error != "" {
			checksum = "error: " + e.Error
		}
		table.Append([]string{filepath.Base(e.Path), e.ContentID, e.Header, e.Metadata, checksum})
	}
	table.Render()
}

// Summary returns a one-line count of checked and failed packages
func (f *Formatter) Summary(results []*PackageResult) string {
	rep := f.Report(results)
	return fmt.Sprintf("%d package(s) checked, %d failed", rep.Checked, rep.Failed)
}

// Write renders results to w in the given format
func (f *Formatter) Write(w io.Writer, format string, results []*PackageResult) error {
	switch format {
	case FormatTable:
		f.WriteTable(w, results)
		return nil
	case FormatJSON:
		b, err := f.FormatJSON(results)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case FormatCBOR:
		b, err := f.FormatCBOR(results)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
