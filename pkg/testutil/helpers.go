// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/tables"
)

// ScenarioSourceName is the report name of ScenarioSource.
const ScenarioSourceName = "scenario"

// ScenarioSource returns a small hand-made table source: a single life rate for
// age 75, a joint rate for 75/67 and single life factors for ages 75 and 80 at
// 4.2%. The joint factor table is deliberately empty.
func ScenarioSource() tables.Source {
	src := tables.Source{
		Rows: tables.Rows{
			SingleRates: []annuity.SingleLifeRate{{Age: 75, Rate: 6.3}},
			JointRates:  []annuity.JointLifeRate{{Age: 75, JointAge: 67, Rate: 5.8}},
			SingleFactors: []annuity.SingleLifeFactor{
				{Age: 75, DiscountRate: 4.2, Factor: 9.5},
				{Age: 80, DiscountRate: 4.2, Factor: 7.8},
			},
		},
		Report: tables.Report{Source: ScenarioSourceName},
	}
	src.Report.Accepted = src.Rows.Len()
	return src
}

// ScenarioSet builds ScenarioSource at the default granularity.
func ScenarioSet(tb testing.TB) *tables.Set {
	tb.Helper()
	set, err := tables.Build(annuity.DefaultGranularity, ScenarioSource())
	if err != nil {
		tb.Fatalf("tables.Build() error = %v", err)
	}
	return set
}

// SingleLifeGift returns a request that hits every ScenarioSet entry and
// yields a 6,300.00 payout and a 59,850.00 deduction.
func SingleLifeGift() annuity.GiftRequest {
	return annuity.GiftRequest{
		DonorAge:     75,
		GiftAmount:   100000,
		Frequency:    annuity.Annual,
		DiscountRate: 4.2,
	}
}

// JointLifeGift returns a joint request whose factor lookup misses in
// ScenarioSet and falls back.
func JointLifeGift() annuity.GiftRequest {
	return annuity.GiftRequest{
		DonorAge:     75,
		JointAge:     67,
		Joint:        true,
		GiftAmount:   100000,
		Frequency:    annuity.Annual,
		DiscountRate: 4.2,
	}
}
