package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// loadCSV reads one table per file. The header decides the shape:
//
//	age,rate                      single life rates
//	age,joint_age,rate            joint life rates
//	age,3.0,3.2,...               single life factors, one column per discount rate
//	age,joint_age,3.0,3.2,...     joint life factors
//
// Blank factor cells mean "no entry" and are not reported.
func loadCSV(path string) (Source, error) {
	src := Source{Report: Report{Source: path}}

	f, err := os.Open(path)
	if err != nil {
		return src, fmt.Errorf("failed to read table file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return src, nil
		}
		return src, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	layout, err := parseCSVHeader(header)
	if err != nil {
		return src, fmt.Errorf("invalid header in %s: %w", path, err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				src.Report.skip(layout.table, parseErr.Line, "%v", parseErr.Err)
				continue
			}
			return src, fmt.Errorf("failed to read %s: %w", path, err)
		}
		line, _ := reader.FieldPos(0)
		layout.appendRecord(&src, line, record)
	}

	return src, nil
}

type csvLayout struct {
	table     string
	joint     bool
	discounts []float64
}

func parseCSVHeader(header []string) (csvLayout, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = normalizeColumn(h)
	}
	if len(names) < 2 || names[0] != "age" {
		return csvLayout{}, fmt.Errorf("first column must be age")
	}

	var layout csvLayout
	rest := names[1:]
	if rest[0] == "jointage" {
		layout.joint = true
		rest = rest[1:]
	}

	if len(rest) == 1 && rest[0] == "rate" {
		layout.table = TableSingleLifeRates
		if layout.joint {
			layout.table = TableJointLifeRates
		}
		return layout, nil
	}
	if len(rest) == 0 {
		return csvLayout{}, fmt.Errorf("no rate or discount rate columns")
	}

	layout.table = TableSingleLifeFactors
	if layout.joint {
		layout.table = TableJointLifeFactors
	}
	offset := len(header) - len(rest)
	for i := range rest {
		discount, err := parseNumber(header[offset+i])
		if err != nil {
			return csvLayout{}, fmt.Errorf("column %d: %v", offset+i+1, err)
		}
		layout.discounts = append(layout.discounts, discount)
	}
	return layout, nil
}

func normalizeColumn(name string) string {
	replacer := strings.NewReplacer("_", "", " ", "", "-", "")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

func (l csvLayout) appendRecord(src *Source, line int, record []string) {
	values := rowValues{}

	age, err := parseNumber(field(record, 0))
	if err != nil {
		src.Report.skip(l.table, line, "age: %v", err)
		return
	}
	values.age = &age

	next := 1
	if l.joint {
		jointAge, err := parseNumber(field(record, 1))
		if err != nil {
			src.Report.skip(l.table, line, "jointAge: %v", err)
			return
		}
		values.jointAge = &jointAge
		next = 2
	}

	if l.discounts == nil {
		rate, err := parseNumber(field(record, next))
		if err != nil {
			src.Report.skip(l.table, line, "rate: %v", err)
			return
		}
		values.rate = &rate
		appendRow(&src.Rows, &src.Report, l.table, line, values)
		return
	}

	for i, discount := range l.discounts {
		cell := field(record, next+i)
		if strings.TrimSpace(cell) == "" {
			continue
		}
		factor, err := parseNumber(cell)
		if err != nil {
			src.Report.skip(l.table, line, "factor at %v%%: %v", discount, err)
			continue
		}
		row := values
		d, f := discount, factor
		row.discountRate = &d
		row.factor = &f
		appendRow(&src.Rows, &src.Report, l.table, line, row)
	}
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
