// Package output provides utilities for formatting and displaying annuity
// estimates.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/iwvelando/gift-annuity/pkg/format"
	"github.com/iwvelando/gift-annuity/pkg/mathutil"
	"github.com/iwvelando/gift-annuity/pkg/tables"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders results in the named format.
func Write(w io.Writer, outputFormat string, results []estimate.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		return CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, results []estimate.Result) error {
	p := message.NewPrinter(language.English)
	for i, r := range results {
		result := r.Estimate
		req := result.Request

		_, _ = fmt.Fprintf(w, "--- Results for gift %s ---\n", r.Name)
		_, _ = p.Fprintf(w, "Gift amount         | $%.2f\n", mathutil.Round(req.GiftAmount))
		if req.Joint {
			_, _ = fmt.Fprintf(w, "Annuitants          | joint, ages %d and %d\n", req.DonorAge, req.JointAge)
		} else {
			_, _ = fmt.Fprintf(w, "Annuitants          | single, age %d\n", req.DonorAge)
		}
		_, _ = fmt.Fprintf(w, "Payment frequency   | %s\n", frequencyLabel(req.Frequency))
		_, _ = fmt.Fprintf(w, "Discount rate       | %s (table column %s%%)\n", format.Percent(req.DiscountRate), result.DiscountKey)
		_, _ = fmt.Fprintf(w, "Payout rate         | %s%s\n", format.Percent(result.Rate), fallbackMark(result.Fallbacks.Rate))
		_, _ = p.Fprintf(w, "Annual payout       | $%.2f\n", mathutil.Round(result.AnnualPayout))
		_, _ = fmt.Fprintf(w, "Present value factor| %s%s\n", format.Factor(result.Factor), fallbackMark(result.Fallbacks.Factor))
		_, _ = fmt.Fprintf(w, "Adjusted factor     | %s (x%s)\n", format.Factor(result.AdjustedFactor), strconv.FormatFloat(result.FrequencyMultiplier, 'f', -1, 64))
		_, _ = p.Fprintf(w, "Estimated deduction | $%.2f\n", mathutil.Round(result.EstimatedDeduction))
		_, _ = fmt.Fprintf(w, "Charitable remainder| %s\n", format.Currency(result.CharitableRemainder))

		for _, warning := range result.Warnings {
			_, _ = fmt.Fprintf(w, "Warning             | %s\n", warning.Message)
		}
		for _, advisory := range r.Advisories {
			_, _ = fmt.Fprintf(w, "Note                | %s\n", advisory)
		}

		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
	return nil
}

// CsvFormat outputs one row per gift in comma-separated value format.
func CsvFormat(w io.Writer, results []estimate.Result) error {
	writer := csv.NewWriter(w)
	header := []string{
		"name", "donor_age", "joint_age", "joint", "gift_amount", "frequency",
		"discount_rate", "discount_key", "rate", "factor", "frequency_multiplier",
		"adjusted_factor", "annual_payout", "estimated_deduction", "charitable_remainder",
		"rate_fallback", "factor_fallback", "notes",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		result := r.Estimate
		req := result.Request
		jointAge := ""
		if req.Joint {
			jointAge = strconv.Itoa(req.JointAge)
		}

		var notes []string
		for _, warning := range result.Warnings {
			notes = append(notes, warning.Message)
		}
		notes = append(notes, r.Advisories...)

		record := []string{
			r.Name,
			strconv.Itoa(req.DonorAge),
			jointAge,
			strconv.FormatBool(req.Joint),
			format.NumericCurrency(req.GiftAmount),
			string(req.Frequency),
			strconv.FormatFloat(req.DiscountRate, 'f', -1, 64),
			string(result.DiscountKey),
			strconv.FormatFloat(result.Rate, 'f', -1, 64),
			strconv.FormatFloat(result.Factor, 'f', -1, 64),
			strconv.FormatFloat(result.FrequencyMultiplier, 'f', -1, 64),
			format.Factor(result.AdjustedFactor),
			format.NumericCurrency(result.AnnualPayout),
			format.NumericCurrency(result.EstimatedDeduction),
			format.NumericCurrency(result.CharitableRemainder),
			strconv.FormatBool(result.Fallbacks.Rate),
			strconv.FormatBool(result.Fallbacks.Factor),
			strings.Join(notes, "; "),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// JSONFormat outputs the results as an indented JSON array. Values are not
// rounded.
func JSONFormat(w io.Writer, results []estimate.Result) error {
	if results == nil {
		results = []estimate.Result{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// ScheduleFormat outputs a year-by-year payout schedule for one gift.
func ScheduleFormat(w io.Writer, name string, schedule []annuity.ScheduledPayout) error {
	_, _ = fmt.Fprintf(w, "--- Payout schedule for gift %s ---\n", name)
	_, _ = fmt.Fprintf(w, "Year | Payments | Per payment | Annual | Cumulative\n")
	_, _ = fmt.Fprintf(w, "____ | ________ | ___________ | ______ | __________\n")
	for _, row := range schedule {
		_, _ = fmt.Fprintf(w, "%4d | %8d | %s | %s | %s\n",
			row.Year, row.Payments,
			format.Currency(row.PerPayment), format.Currency(row.Annual), format.Currency(row.Cumulative))
	}
	return nil
}

// TablesFormat outputs a summary of a loaded table set.
func TablesFormat(w io.Writer, set *tables.Set) error {
	singleRates, jointRates := set.Rates.Len()
	singleFactors, jointFactors := set.Factors.Len()

	_, _ = fmt.Fprintf(w, "--- Rate and factor tables ---\n")
	_, _ = fmt.Fprintf(w, "Single life rates   | %d\n", singleRates)
	_, _ = fmt.Fprintf(w, "Joint life rates    | %d\n", jointRates)
	_, _ = fmt.Fprintf(w, "Single life factors | %d\n", singleFactors)
	_, _ = fmt.Fprintf(w, "Joint life factors  | %d\n", jointFactors)
	_, _ = fmt.Fprintf(w, "Discount step       | %s\n", set.Factors.Granularity())

	keys := make([]string, 0)
	for _, key := range set.Factors.Keys() {
		keys = append(keys, key.String())
	}
	_, _ = fmt.Fprintf(w, "Discount columns    | %s\n", strings.Join(keys, ", "))
	if ages := set.Factors.Ages(); len(ages) > 0 {
		_, _ = fmt.Fprintf(w, "Factor ages         | %d-%d\n", ages[0], ages[len(ages)-1])
	}

	if rows := set.Rates.SingleRates(); len(rows) > 0 {
		_, _ = fmt.Fprintf(w, "\nAge | Single life rate\n")
		for _, row := range rows {
			_, _ = fmt.Fprintf(w, "%3d | %s\n", row.Age, format.Percent(row.Rate))
		}
	}
	if rows := set.Rates.JointRates(); len(rows) > 0 {
		_, _ = fmt.Fprintf(w, "\nAges    | Joint life rate\n")
		for _, row := range rows {
			_, _ = fmt.Fprintf(w, "%3d/%-3d | %s\n", row.Age, row.JointAge, format.Percent(row.Rate))
		}
	}

	return ReportFormat(w, set.Reports)
}

// ReportFormat outputs the per-source load report, listing every skipped row.
func ReportFormat(w io.Writer, reports []tables.Report) error {
	for _, report := range reports {
		_, _ = fmt.Fprintf(w, "\nSource %s: %d rows accepted, %d skipped\n", report.Source, report.Accepted, len(report.Skipped))
		for _, skipped := range report.Skipped {
			_, _ = fmt.Fprintf(w, "  %s\n", skipped)
		}
	}
	return nil
}

func frequencyLabel(f annuity.Frequency) string {
	if f == "" {
		return fmt.Sprintf("%s (default)", annuity.Annual)
	}
	if !f.Known() {
		return fmt.Sprintf("%s (unrecognised, treated as %s)", f, annuity.Annual)
	}
	return string(f)
}

func fallbackMark(used bool) string {
	if used {
		return " (fallback)"
	}
	return ""
}
