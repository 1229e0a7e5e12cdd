package annuity

import (
	"fmt"
	"sort"
)

// SingleLifeFactor is a present value annuity factor for one annuitant at a
// given discount rate, in percent.
type SingleLifeFactor struct {
	Age          int     `json:"age"`
	DiscountRate float64 `json:"discountRate"`
	Factor       float64 `json:"factor"`
}

// JointLifeFactor is a present value annuity factor for an ordered pair of
// annuitants at a given discount rate, in percent.
type JointLifeFactor struct {
	Age          int     `json:"age"`
	JointAge     int     `json:"jointAge"`
	DiscountRate float64 `json:"discountRate"`
	Factor       float64 `json:"factor"`
}

type singleFactorKey struct {
	age int
	key DiscountKey
}

type jointFactorKey struct {
	pair agePair
	key  DiscountKey
}

// FactorTable maps (age, discount key) and (age pair, discount key) to present
// value factors. A nil or empty FactorTable is valid and misses on every lookup.
type FactorTable struct {
	granularity Granularity
	single      map[singleFactorKey]float64
	joint       map[jointFactorKey]float64
}

// NewFactorTable builds a FactorTable whose rows are quantized with g. Two rows
// that quantize to the same key are rejected with ErrDuplicateKey, and a row
// with a non-finite discount rate is rejected with ErrInvalidRow.
func NewFactorTable(g Granularity, single []SingleLifeFactor, joint []JointLifeFactor) (*FactorTable, error) {
	t := &FactorTable{
		granularity: g,
		single:      make(map[singleFactorKey]float64, len(single)),
		joint:       make(map[jointFactorKey]float64, len(joint)),
	}

	for _, row := range single {
		dk := g.KeyFor(row.DiscountRate)
		if dk == "" {
			return nil, fmt.Errorf("%w: single life factor for age %d has discount rate %v", ErrInvalidRow, row.Age, row.DiscountRate)
		}
		key := singleFactorKey{age: row.Age, key: dk}
		if _, exists := t.single[key]; exists {
			return nil, fmt.Errorf("%w: single life factor for age %d at %s%%", ErrDuplicateKey, row.Age, dk)
		}
		t.single[key] = row.Factor
	}

	for _, row := range joint {
		dk := g.KeyFor(row.DiscountRate)
		if dk == "" {
			return nil, fmt.Errorf("%w: joint life factor for ages %d/%d has discount rate %v", ErrInvalidRow, row.Age, row.JointAge, row.DiscountRate)
		}
		key := jointFactorKey{pair: agePair{age: row.Age, jointAge: row.JointAge}, key: dk}
		if _, exists := t.joint[key]; exists {
			return nil, fmt.Errorf("%w: joint life factor for ages %d/%d at %s%%", ErrDuplicateKey, row.Age, row.JointAge, dk)
		}
		t.joint[key] = row.Factor
	}

	return t, nil
}

// Granularity returns the quantization step of the table's discount columns.
func (t *FactorTable) Granularity() Granularity {
	if t == nil {
		return DefaultGranularity
	}
	return t.granularity
}

// DiscountKeyFor quantizes a continuous discount rate to this table's columns.
// It always returns a key; whether the key is present is up to the lookups.
func (t *FactorTable) DiscountKeyFor(rate float64) DiscountKey {
	return t.Granularity().KeyFor(rate)
}

// LookupSingle returns the factor for exactly (age, key).
func (t *FactorTable) LookupSingle(age int, key DiscountKey) (float64, bool) {
	if t == nil {
		return 0, false
	}
	factor, ok := t.single[singleFactorKey{age: age, key: key}]
	return factor, ok
}

// LookupJoint returns the factor for exactly the ordered pair (age, jointAge)
// at key.
func (t *FactorTable) LookupJoint(age, jointAge int, key DiscountKey) (float64, bool) {
	if t == nil {
		return 0, false
	}
	factor, ok := t.joint[jointFactorKey{pair: agePair{age: age, jointAge: jointAge}, key: key}]
	return factor, ok
}

// Len returns the number of single life and joint life entries.
func (t *FactorTable) Len() (single, joint int) {
	if t == nil {
		return 0, 0
	}
	return len(t.single), len(t.joint)
}

// Keys returns the distinct discount keys present in the table, ascending.
func (t *FactorTable) Keys() []DiscountKey {
	if t == nil {
		return nil
	}
	seen := make(map[DiscountKey]float64)
	for k := range t.single {
		seen[k.key], _ = k.key.Rate()
	}
	for k := range t.joint {
		seen[k.key], _ = k.key.Rate()
	}

	keys := make([]DiscountKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return seen[keys[i]] < seen[keys[j]] })
	return keys
}

// Ages returns the distinct single life ages present in the table, ascending.
func (t *FactorTable) Ages() []int {
	if t == nil {
		return nil
	}
	seen := make(map[int]struct{})
	for k := range t.single {
		seen[k.age] = struct{}{}
	}
	ages := make([]int, 0, len(seen))
	for age := range seen {
		ages = append(ages, age)
	}
	sort.Ints(ages)
	return ages
}
