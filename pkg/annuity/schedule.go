package annuity

// ScheduledPayout is one year of an annuity's payout schedule.
type ScheduledPayout struct {
	Year       int     `json:"year"`
	Payments   int     `json:"payments"`
	PerPayment float64 `json:"perPayment"`
	Annual     float64 `json:"annual"`
	Cumulative float64 `json:"cumulative"`
}

// PayoutSchedule spreads the result's annual payout over the given number of
// years at the request's payment frequency. The payout is level every year.
func PayoutSchedule(result AnnuityResult, years int) []ScheduledPayout {
	if years <= 0 {
		return nil
	}

	payments := PaymentsPerYear(result.Request.Frequency)
	perPayment := result.AnnualPayout / float64(payments)

	schedule := make([]ScheduledPayout, 0, years)
	for year := 1; year <= years; year++ {
		schedule = append(schedule, ScheduledPayout{
			Year:       year,
			Payments:   payments,
			PerPayment: perPayment,
			Annual:     result.AnnualPayout,
			Cumulative: result.AnnualPayout * float64(year),
		})
	}
	return schedule
}
