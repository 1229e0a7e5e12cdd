package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/testutil"
)

func sampleResults(t *testing.T) []estimate.Result {
	t.Helper()
	est := estimate.New(nil, testutil.ScenarioSet(t), config.CalculatorConfig{})

	single, err := est.Estimate("Single", testutil.SingleLifeGift())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	joint, err := est.Estimate("Joint", testutil.JointLifeGift())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	return []estimate.Result{single, joint}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleResults(t)); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Results for gift Single ---",
		"--- Results for gift Joint ---",
		"Gift amount         | $100,000.00",
		"Annuitants          | single, age 75",
		"Annuitants          | joint, ages 75 and 67",
		"Payout rate         | 6.30%",
		"Annual payout       | $6,300.00",
		"Present value factor| 9.5000",
		"Estimated deduction | $59,850.00",
		"Charitable remainder| $40,150.00",
		"Present value factor| 9.0000 (fallback)",
		"Estimated deduction | $52,200.00",
		"Warning             | no present value factor for ages 75/67",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q\n%s", want, output)
		}
	}
}

func TestPrettyFormatFrequencyLabels(t *testing.T) {
	tests := []struct {
		frequency annuity.Frequency
		expected  string
	}{
		{annuity.Monthly, "Payment frequency   | Monthly\n"},
		{"", "Payment frequency   | Annual (default)\n"},
		{"Weekly", "Payment frequency   | Weekly (unrecognised, treated as Annual)\n"},
	}

	est := estimate.New(nil, testutil.ScenarioSet(t), config.CalculatorConfig{})
	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			req := testutil.SingleLifeGift()
			req.Frequency = tt.frequency
			result, err := est.Estimate("Gift", req)
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}

			var buf bytes.Buffer
			_ = PrettyFormat(&buf, []estimate.Result{result})
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("PrettyFormat output missing %q\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleResults(t)); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CsvFormat produced unreadable CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, expected header plus 2 rows", len(records))
	}

	header := records[0]
	column := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}

	single := records[1]
	if single[column("name")] != "Single" {
		t.Errorf("name = %q", single[column("name")])
	}
	if single[column("joint_age")] != "" {
		t.Errorf("joint_age = %q, expected empty for single life", single[column("joint_age")])
	}
	if single[column("charitable_remainder")] != "40150.00" {
		t.Errorf("charitable_remainder = %q, expected 40150.00", single[column("charitable_remainder")])
	}
	if single[column("annual_payout")] != "6300.00" {
		t.Errorf("annual_payout = %q, expected 6300.00", single[column("annual_payout")])
	}
	if single[column("estimated_deduction")] != "59850.00" {
		t.Errorf("estimated_deduction = %q, expected 59850.00", single[column("estimated_deduction")])
	}

	joint := records[2]
	if joint[column("joint_age")] != "67" {
		t.Errorf("joint_age = %q, expected 67", joint[column("joint_age")])
	}
	if joint[column("factor_fallback")] != "true" || joint[column("rate_fallback")] != "false" {
		t.Errorf("fallback columns = %q/%q", joint[column("rate_fallback")], joint[column("factor_fallback")])
	}
	if !strings.Contains(joint[column("notes")], "fallback factor 9.0") {
		t.Errorf("notes = %q, expected the factor fallback warning", joint[column("notes")])
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleResults(t)); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSONFormat produced invalid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, expected 2", len(decoded))
	}

	if decoded[0]["name"] != "Single" {
		t.Errorf("name = %v", decoded[0]["name"])
	}
	single, ok := decoded[0]["estimate"].(map[string]interface{})
	if !ok {
		t.Fatalf("single estimate = %v", decoded[0]["estimate"])
	}
	if single["discountKey"] != "4.2" {
		t.Errorf("discountKey = %v, expected 4.2", single["discountKey"])
	}
	if single["rate"] != 6.3 {
		t.Errorf("rate = %v, expected 6.3", single["rate"])
	}
	if single["charitableRemainder"] != 40150.0 {
		t.Errorf("charitableRemainder = %v, expected 40150", single["charitableRemainder"])
	}
	if _, ok := single["warnings"]; ok {
		t.Errorf("single result should omit empty warnings")
	}
	if _, ok := decoded[0]["advisories"]; ok {
		t.Errorf("single result should omit empty advisories")
	}

	joint, ok := decoded[1]["estimate"].(map[string]interface{})
	if !ok {
		t.Fatalf("joint estimate = %v", decoded[1]["estimate"])
	}
	warnings, ok := joint["warnings"].([]interface{})
	if !ok || len(warnings) != 1 {
		t.Fatalf("joint warnings = %v", joint["warnings"])
	}
}

func TestJSONFormatCleanResult(t *testing.T) {
	results := []estimate.Result{{Name: "Clean", Estimate: annuity.AnnuityResult{Rate: 6.3}}}

	var buf bytes.Buffer
	if err := JSONFormat(&buf, results); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded []estimate.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSONFormat produced invalid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 1 || decoded[0].Name != "Clean" || decoded[0].Estimate.Rate != 6.3 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded[0].Estimate.Warnings != nil || decoded[0].Advisories != nil {
		t.Errorf("expected no warnings or advisories, got %+v", decoded[0])
	}
}

func TestJSONFormatEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, nil); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("JSONFormat(nil) = %q, expected []", buf.String())
	}
}

func TestWrite(t *testing.T) {
	results := sampleResults(t)
	for _, format := range []string{"pretty", "csv", "json"} {
		var buf bytes.Buffer
		if err := Write(&buf, format, results); err != nil {
			t.Errorf("Write(%s) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", format)
		}
	}

	if err := Write(&bytes.Buffer{}, "xml", results); err == nil {
		t.Errorf("Write(xml) expected error but got none")
	}
}

func TestScheduleFormat(t *testing.T) {
	results := sampleResults(t)
	result := results[0].Estimate
	result.Request.Frequency = annuity.Quarterly

	var buf bytes.Buffer
	if err := ScheduleFormat(&buf, "Single", annuity.PayoutSchedule(result, 3)); err != nil {
		t.Fatalf("ScheduleFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Payout schedule for gift Single ---",
		"   1 |        4 | $1,575.00 | $6,300.00 | $6,300.00",
		"   3 |        4 | $1,575.00 | $6,300.00 | $18,900.00",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("ScheduleFormat output missing %q\n%s", want, output)
		}
	}
}

func TestTablesFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := TablesFormat(&buf, testutil.ScenarioSet(t)); err != nil {
		t.Fatalf("TablesFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"Single life rates   | 1",
		"Joint life rates    | 1",
		"Single life factors | 2",
		"Joint life factors  | 0",
		"Discount step       | 0.1",
		"Discount columns    | 4.2",
		"Factor ages         | 75-80",
		" 75 | 6.30%",
		" 75/67  | 5.80%",
		"Source scenario: 4 rows accepted, 0 skipped",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("TablesFormat output missing %q\n%s", want, output)
		}
	}
}
