// Package tabular decodes fixed-layout text tables printed by sampling tools
// such as sar. A line is matched as a timestamp, a device name and a fixed
// number of numeric columns; the last matching line is projected onto a
// caller-selected list of raw and derived fields.
package tabular

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

// numericToken matches an empty token or a decimal number.
const numericToken = `(\d*\.?\d*)`

// Layout describes the text shape of one tool's output.
type Layout struct {
	// Columns is the number of numeric columns after the device token.
	Columns int `yaml:"columns"`

	// Separator is the minimum number of spaces between tokens.
	Separator int `yaml:"separator"`

	// LastSeparator is the minimum number of spaces before the final column.
	// sar pads its last column so that at least two spaces precede it.
	LastSeparator int `yaml:"last_separator"`

	// DefaultDevice is the device regexp used when no --nic filter is given.
	DefaultDevice string `yaml:"default_device"`
}

// Validate checks that the layout can produce a usable pattern.
func (l Layout) Validate() error {
	if l.Columns < 1 {
		return fmt.Errorf("layout: columns must be at least 1, got %d", l.Columns)
	}
	if l.Separator < 1 || l.LastSeparator < 1 {
		return fmt.Errorf("layout: separator widths must be at least 1, got %d/%d", l.Separator, l.LastSeparator)
	}
	if l.DefaultDevice == "" {
		return fmt.Errorf("layout: default device pattern is required")
	}
	if _, err := regexp.Compile(l.DefaultDevice); err != nil {
		return fmt.Errorf("layout: default device pattern: %w", err)
	}
	return nil
}

// Row is one matched line: timestamp, device, then the numeric columns.
type Row []string

// Table holds every matched row in input order.
type Table []Row

// Last returns the most recent row, or nil for an empty table.
func (t Table) Last() Row {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// Projection is an ordered list of resolved fields.
type Projection []Field

// Decoder matches raw text against a Layout and projects Schema fields.
type Decoder struct {
	layout Layout
	schema *Schema
}

// NewDecoder pairs a layout with the field registry of its rows.
func NewDecoder(layout Layout, schema *Schema) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, fmt.Errorf("decoder: nil schema")
	}
	if want := layout.Columns + 2; schema.Width() != want {
		return nil, fmt.Errorf("decoder: schema width %d does not match layout width %d", schema.Width(), want)
	}
	return &Decoder{layout: layout, schema: schema}, nil
}

// Pattern builds the line pattern for a device filter. With set=false the
// layout's default device pattern applies; otherwise device names containing
// filter match, and an empty filter matches any device.
func (d *Decoder) Pattern(filter string, set bool) (*regexp.Regexp, error) {
	device := d.layout.DefaultDevice
	if set {
		if filter == "" {
			device = `\S+`
		} else {
			device = `\S*?` + regexp.QuoteMeta(filter) + `\S*`
		}
	}

	sep := fmt.Sprintf(` {%d,}`, d.layout.Separator)
	last := fmt.Sprintf(` {%d,}`, d.layout.LastSeparator)

	var b strings.Builder
	b.WriteString(`(?m)^(\d.*?)`)
	b.WriteString(sep)
	b.WriteString(`(` + device + `)`)
	for i := 0; i < d.layout.Columns; i++ {
		if i == d.layout.Columns-1 {
			b.WriteString(last)
		} else {
			b.WriteString(sep)
		}
		b.WriteString(numericToken)
	}
	return regexp.Compile(b.String())
}

// Parse returns every non-overlapping match of re in raw.
func Parse(raw string, re *regexp.Regexp) Table {
	matches := re.FindAllStringSubmatch(raw, -1)
	table := make(Table, 0, len(matches))
	for _, m := range matches {
		table = append(table, Row(m[1:]))
	}
	return table
}

// Check validates para without scanning any text: flags, field names and
// the device filter must all be usable.
func (d *Decoder) Check(para string) error {
	sel, err := monitor.ParseSelection(para)
	if err != nil {
		return err
	}
	if _, err := d.schema.Resolve(sel.Fields); err != nil {
		return err
	}
	if _, err := d.Pattern(sel.Device, sel.DeviceSet); err != nil {
		return &monitor.ParamError{Flag: "nic", Value: sel.Device, Reason: err.Error()}
	}
	return nil
}

// Decode parses para into a device filter and field list, matches raw and
// projects the fields from the last matching row. Field names are resolved
// before raw is scanned. A blank para selects no fields under the default
// device pattern, so it still fails when no row matches.
func (d *Decoder) Decode(raw, para string) (string, error) {
	sel, err := monitor.ParseSelection(para)
	if err != nil {
		return "", err
	}
	proj, err := d.schema.Resolve(sel.Fields)
	if err != nil {
		return "", err
	}

	re, err := d.Pattern(sel.Device, sel.DeviceSet)
	if err != nil {
		return "", &monitor.ParamError{Flag: "nic", Value: sel.Device, Reason: err.Error()}
	}

	filter := d.layout.DefaultDevice
	if sel.DeviceSet {
		filter = sel.Device
	}

	table := Parse(raw, re)
	if len(table) == 0 {
		return "", &monitor.NoDataError{Filter: filter}
	}
	return Project(table.Last(), proj, filter)
}

// Project renders the fields of row in order, each preceded by one space.
// Raw columns are copied verbatim; derived fields are summed as float64.
func Project(row Row, proj Projection, filter string) (string, error) {
	var b strings.Builder
	for _, f := range proj {
		b.WriteByte(' ')
		if !f.IsDerived() {
			b.WriteString(row[f.Column])
			continue
		}
		sum, err := sumColumns(row, f.Sum)
		if err != nil {
			return "", &monitor.NoDataError{
				Filter: filter,
				Detail: fmt.Sprintf("%s field %q: %v", f.Derived, f.Name, err),
			}
		}
		b.WriteString(FormatFloat(sum))
	}
	return b.String(), nil
}

func sumColumns(row Row, cols []int) (float64, error) {
	var sum float64
	for _, c := range cols {
		v, err := strconv.ParseFloat(row[c], 64)
		if err != nil {
			return 0, fmt.Errorf("column %d is not numeric: %q", c, row[c])
		}
		sum += v
	}
	return sum, nil
}
