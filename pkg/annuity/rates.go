// Package annuity resolves charitable gift annuity payout rates and present value
// factors from lookup tables and derives the payout and estimated deduction.
//
// Everything in this package is pure: tables are immutable once built and the
// calculator performs no I/O, so values may be shared freely between goroutines.
package annuity

import (
	"fmt"
	"sort"
)

// SingleLifeRate is a suggested payout rate, in percent, for one annuitant.
type SingleLifeRate struct {
	Age  int     `json:"age"`
	Rate float64 `json:"rate"`
}

// JointLifeRate is a suggested payout rate, in percent, for an ordered pair of
// annuitants: the donor first, then the joint annuitant.
type JointLifeRate struct {
	Age      int     `json:"age"`
	JointAge int     `json:"jointAge"`
	Rate     float64 `json:"rate"`
}

type agePair struct {
	age      int
	jointAge int
}

// RateTable maps ages and ordered age pairs to payout rates.
// A nil or empty RateTable is valid and misses on every lookup.
type RateTable struct {
	single map[int]float64
	joint  map[agePair]float64
}

// NewRateTable builds a RateTable. Keys must be unique; a repeated age or age
// pair is rejected with ErrDuplicateKey rather than silently overwritten.
func NewRateTable(single []SingleLifeRate, joint []JointLifeRate) (*RateTable, error) {
	t := &RateTable{
		single: make(map[int]float64, len(single)),
		joint:  make(map[agePair]float64, len(joint)),
	}

	for _, row := range single {
		if _, exists := t.single[row.Age]; exists {
			return nil, fmt.Errorf("%w: single life rate for age %d", ErrDuplicateKey, row.Age)
		}
		t.single[row.Age] = row.Rate
	}

	for _, row := range joint {
		key := agePair{age: row.Age, jointAge: row.JointAge}
		if _, exists := t.joint[key]; exists {
			return nil, fmt.Errorf("%w: joint life rate for ages %d/%d", ErrDuplicateKey, row.Age, row.JointAge)
		}
		t.joint[key] = row.Rate
	}

	return t, nil
}

// LookupSingle returns the rate for exactly the given age.
func (t *RateTable) LookupSingle(age int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.single[age]
	return rate, ok
}

// LookupJoint returns the rate for exactly the ordered pair (age, jointAge).
// The swapped pair is never consulted.
func (t *RateTable) LookupJoint(age, jointAge int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	rate, ok := t.joint[agePair{age: age, jointAge: jointAge}]
	return rate, ok
}

// Len returns the number of single life and joint life entries.
func (t *RateTable) Len() (single, joint int) {
	if t == nil {
		return 0, 0
	}
	return len(t.single), len(t.joint)
}

// SingleRates returns every single life row ordered by age.
func (t *RateTable) SingleRates() []SingleLifeRate {
	if t == nil {
		return nil
	}
	rows := make([]SingleLifeRate, 0, len(t.single))
	for age, rate := range t.single {
		rows = append(rows, SingleLifeRate{Age: age, Rate: rate})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Age < rows[j].Age })
	return rows
}

// JointRates returns every joint life row ordered by donor age, then joint age.
func (t *RateTable) JointRates() []JointLifeRate {
	if t == nil {
		return nil
	}
	rows := make([]JointLifeRate, 0, len(t.joint))
	for key, rate := range t.joint {
		rows = append(rows, JointLifeRate{Age: key.age, JointAge: key.jointAge, Rate: rate})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Age != rows[j].Age {
			return rows[i].Age < rows[j].Age
		}
		return rows[i].JointAge < rows[j].JointAge
	})
	return rows
}
