package tables

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// HCL table files hold one block per row:
//
//	single_life_rate {
//	  age  = 75
//	  rate = 6.3
//	}
//
//	joint_life_factor {
//	  age           = 75
//	  joint_age     = 67
//	  discount_rate = 4.2
//	  factor        = 11.1
//	}
//
// joint_life_rate and single_life_factor blocks follow the same pattern.
var hclBlockTables = map[string]string{
	"single_life_rate":   TableSingleLifeRates,
	"joint_life_rate":    TableJointLifeRates,
	"single_life_factor": TableSingleLifeFactors,
	"joint_life_factor":  TableJointLifeFactors,
}

var hclSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "single_life_rate"},
		{Type: "joint_life_rate"},
		{Type: "single_life_factor"},
		{Type: "joint_life_factor"},
	},
}

func loadHCL(path string) (Source, error) {
	src := Source{Report: Report{Source: path}}

	data, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("failed to read table file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return src, fmt.Errorf("failed to parse table file %s: %s", path, diags.Error())
	}

	content, _, diags := file.Body.PartialContent(hclSchema)
	if diags.HasErrors() {
		return src, fmt.Errorf("failed to read blocks from %s: %s", path, diags.Error())
	}

	for _, block := range content.Blocks {
		table := hclBlockTables[block.Type]
		line := block.DefRange.Start.Line

		values, err := hclRowValues(block)
		if err != nil {
			src.Report.skip(table, line, "%v", err)
			continue
		}
		appendRow(&src.Rows, &src.Report, table, line, values)
	}

	return src, nil
}

func hclRowValues(block *hcl.Block) (rowValues, error) {
	var values rowValues

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return values, fmt.Errorf("%s", diags.Error())
	}

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return values, fmt.Errorf("%s: %s", name, diags.Error())
		}
		f, err := ctyNumber(val)
		if err != nil {
			return values, fmt.Errorf("%s: %v", name, err)
		}

		switch name {
		case "age":
			values.age = &f
		case "joint_age":
			values.jointAge = &f
		case "rate":
			values.rate = &f
		case "discount_rate":
			values.discountRate = &f
		case "factor":
			values.factor = &f
		default:
			return values, fmt.Errorf("unknown attribute %q", name)
		}
	}

	return values, nil
}

func ctyNumber(val cty.Value) (float64, error) {
	if val.IsNull() || !val.IsKnown() {
		return 0, fmt.Errorf("value is not set")
	}
	switch val.Type() {
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case cty.String:
		return parseNumber(val.AsString())
	default:
		return 0, fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
}
