// Package tables supplies annuity rate and factor tables from files or from the
// built-in defaults.
//
// Rows are parsed one at a time. A malformed row is skipped and recorded in the
// Report instead of failing the whole source, so a partially broken file still
// yields a usable table.
package tables

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/iwvelando/gift-annuity/pkg/annuity"
)

// Table names used in reports.
const (
	TableSingleLifeRates   = "singleLifeRates"
	TableJointLifeRates    = "jointLifeRates"
	TableSingleLifeFactors = "singleLifeFactors"
	TableJointLifeFactors  = "jointLifeFactors"
)

// Rows holds parsed, not yet indexed, table rows.
type Rows struct {
	SingleRates   []annuity.SingleLifeRate
	JointRates    []annuity.JointLifeRate
	SingleFactors []annuity.SingleLifeFactor
	JointFactors  []annuity.JointLifeFactor
}

// Len returns the total number of rows.
func (r Rows) Len() int {
	return len(r.SingleRates) + len(r.JointRates) + len(r.SingleFactors) + len(r.JointFactors)
}

// SkippedRow describes a row that was dropped while loading. Row is the line
// number in the source file, or the position within its table for duplicates
// and built-in rows.
type SkippedRow struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// String implements fmt.Stringer.
func (s SkippedRow) String() string {
	return fmt.Sprintf("%s row %d: %s", s.Table, s.Row, s.Reason)
}

// Report summarises what one source contributed.
type Report struct {
	Source   string       `json:"source"`
	Accepted int          `json:"accepted"`
	Skipped  []SkippedRow `json:"skipped,omitempty"`
}

func (r *Report) skip(table string, row int, format string, args ...interface{}) {
	r.Skipped = append(r.Skipped, SkippedRow{Table: table, Row: row, Reason: fmt.Sprintf(format, args...)})
}

// Set is a pair of immutable tables ready for the calculator, with the reports
// of every source that fed them.
type Set struct {
	Rates   *annuity.RateTable   `json:"-"`
	Factors *annuity.FactorTable `json:"-"`
	Reports []Report             `json:"reports"`
}

// Skipped returns the number of rows skipped across every source.
func (s *Set) Skipped() int {
	n := 0
	for _, r := range s.Reports {
		n += len(r.Skipped)
	}
	return n
}

// Source is a parsed table file or built-in table set.
type Source struct {
	Rows   Rows
	Report Report
}

// LoadFile parses a table file, choosing the format by extension: .yaml/.yml,
// .csv or .hcl. An unreadable or unparseable file is an error; individual bad
// rows are not.
func LoadFile(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".csv":
		return loadCSV(path)
	case ".hcl":
		return loadHCL(path)
	default:
		return Source{}, fmt.Errorf("unsupported table file type %q", path)
	}
}

// Build merges sources into a Set. Keys repeated across or within sources keep
// their first occurrence; later ones are reported as skipped duplicates.
func Build(g annuity.Granularity, sources ...Source) (*Set, error) {
	var merged Rows
	set := &Set{}

	seenSingleRate := make(map[int]bool)
	seenJointRate := make(map[[2]int]bool)
	seenSingleFactor := make(map[string]bool)
	seenJointFactor := make(map[string]bool)

	for _, src := range sources {
		report := Report{
			Source:  src.Report.Source,
			Skipped: append([]SkippedRow(nil), src.Report.Skipped...),
		}

		for i, row := range src.Rows.SingleRates {
			if seenSingleRate[row.Age] {
				report.skip(TableSingleLifeRates, i+1, "duplicate age %d", row.Age)
				continue
			}
			seenSingleRate[row.Age] = true
			merged.SingleRates = append(merged.SingleRates, row)
			report.Accepted++
		}

		for i, row := range src.Rows.JointRates {
			key := [2]int{row.Age, row.JointAge}
			if seenJointRate[key] {
				report.skip(TableJointLifeRates, i+1, "duplicate ages %d/%d", row.Age, row.JointAge)
				continue
			}
			seenJointRate[key] = true
			merged.JointRates = append(merged.JointRates, row)
			report.Accepted++
		}

		for i, row := range src.Rows.SingleFactors {
			dk := g.KeyFor(row.DiscountRate)
			key := fmt.Sprintf("%d|%s", row.Age, dk)
			if seenSingleFactor[key] {
				report.skip(TableSingleLifeFactors, i+1, "duplicate age %d at %s%%", row.Age, dk)
				continue
			}
			seenSingleFactor[key] = true
			merged.SingleFactors = append(merged.SingleFactors, row)
			report.Accepted++
		}

		for i, row := range src.Rows.JointFactors {
			dk := g.KeyFor(row.DiscountRate)
			key := fmt.Sprintf("%d|%d|%s", row.Age, row.JointAge, dk)
			if seenJointFactor[key] {
				report.skip(TableJointLifeFactors, i+1, "duplicate ages %d/%d at %s%%", row.Age, row.JointAge, dk)
				continue
			}
			seenJointFactor[key] = true
			merged.JointFactors = append(merged.JointFactors, row)
			report.Accepted++
		}

		set.Reports = append(set.Reports, report)
	}

	rates, err := annuity.NewRateTable(merged.SingleRates, merged.JointRates)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate table: %w", err)
	}
	factors, err := annuity.NewFactorTable(g, merged.SingleFactors, merged.JointFactors)
	if err != nil {
		return nil, fmt.Errorf("failed to build factor table: %w", err)
	}

	set.Rates = rates
	set.Factors = factors
	return set, nil
}

// rowValues are the raw fields of one row before validation. Missing fields
// are nil.
type rowValues struct {
	age          *float64
	jointAge     *float64
	rate         *float64
	discountRate *float64
	factor       *float64
}

// appendRow validates v as a row of the given table and appends it to rows, or
// records why it was skipped.
func appendRow(rows *Rows, report *Report, table string, index int, v rowValues) {
	age, err := requireAge("age", v.age)
	if err != nil {
		report.skip(table, index, "%v", err)
		return
	}

	var jointAge int
	if table == TableJointLifeRates || table == TableJointLifeFactors {
		jointAge, err = requireAge("jointAge", v.jointAge)
		if err != nil {
			report.skip(table, index, "%v", err)
			return
		}
	}

	switch table {
	case TableSingleLifeRates, TableJointLifeRates:
		rate, err := requireNonNegative("rate", v.rate)
		if err != nil {
			report.skip(table, index, "%v", err)
			return
		}
		if table == TableSingleLifeRates {
			rows.SingleRates = append(rows.SingleRates, annuity.SingleLifeRate{Age: age, Rate: rate})
		} else {
			rows.JointRates = append(rows.JointRates, annuity.JointLifeRate{Age: age, JointAge: jointAge, Rate: rate})
		}
	case TableSingleLifeFactors, TableJointLifeFactors:
		discount, err := requireFinite("discountRate", v.discountRate)
		if err != nil {
			report.skip(table, index, "%v", err)
			return
		}
		factor, err := requireNonNegative("factor", v.factor)
		if err != nil {
			report.skip(table, index, "%v", err)
			return
		}
		if table == TableSingleLifeFactors {
			rows.SingleFactors = append(rows.SingleFactors, annuity.SingleLifeFactor{Age: age, DiscountRate: discount, Factor: factor})
		} else {
			rows.JointFactors = append(rows.JointFactors, annuity.JointLifeFactor{Age: age, JointAge: jointAge, DiscountRate: discount, Factor: factor})
		}
	}
	report.Accepted++
}

func requireFinite(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", field)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%s is not a finite number", field)
	}
	return *v, nil
}

func requireNonNegative(field string, v *float64) (float64, error) {
	f, err := requireFinite(field, v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", field, f)
	}
	return f, nil
}

func requireAge(field string, v *float64) (int, error) {
	f, err := requireFinite(field, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", field, f)
	}
	if f <= 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s out of range, got %v", field, f)
	}
	return int(f), nil
}
