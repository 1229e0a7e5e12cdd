package tables

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	SingleLifeRates   []yaml.Node `yaml:"singleLifeRates"`
	JointLifeRates    []yaml.Node `yaml:"jointLifeRates"`
	SingleLifeFactors []yaml.Node `yaml:"singleLifeFactors"`
	JointLifeFactors  []yaml.Node `yaml:"jointLifeFactors"`
}

type yamlRow struct {
	Age          *yamlNumber `yaml:"age"`
	JointAge     *yamlNumber `yaml:"jointAge"`
	Rate         *yamlNumber `yaml:"rate"`
	DiscountRate *yamlNumber `yaml:"discountRate"`
	Factor       *yamlNumber `yaml:"factor"`
}

// yamlNumber decodes scalars such as 6.3, "6.3" or "6.3%".
type yamlNumber float64

func (n *yamlNumber) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	f, err := parseNumber(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %v", value.Line, err)
	}
	*n = yamlNumber(f)
	return nil
}

func (n *yamlNumber) float() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

func loadYAML(path string) (Source, error) {
	src := Source{Report: Report{Source: path}}

	data, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("failed to read table file: %w", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return src, fmt.Errorf("failed to parse table file %s: %w", path, err)
	}

	decodeYAMLRows(&src, TableSingleLifeRates, doc.SingleLifeRates)
	decodeYAMLRows(&src, TableJointLifeRates, doc.JointLifeRates)
	decodeYAMLRows(&src, TableSingleLifeFactors, doc.SingleLifeFactors)
	decodeYAMLRows(&src, TableJointLifeFactors, doc.JointLifeFactors)

	return src, nil
}

func decodeYAMLRows(src *Source, table string, nodes []yaml.Node) {
	for i := range nodes {
		node := &nodes[i]
		var row yamlRow
		if err := node.Decode(&row); err != nil {
			src.Report.skip(table, node.Line, "%v", err)
			continue
		}
		appendRow(&src.Rows, &src.Report, table, node.Line, rowValues{
			age:          row.Age.float(),
			jointAge:     row.JointAge.float(),
			rate:         row.Rate.float(),
			discountRate: row.DiscountRate.float(),
			factor:       row.Factor.float(),
		})
	}
}
