package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRiskProfileProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals the sum of values", prop.ForAll(
		func(values []int) bool {
			p := RiskProfile{}
			sum := 0
			for i, v := range values {
				p[string(rune('a'+i))] = v
				sum += v
			}
			return p.Total() == sum
		},
		gen.SliceOfN(10, gen.IntRange(0, 100)),
	))

	properties.Property("complete iff total is exactly 100", prop.ForAll(
		func(a, b int) bool {
			p := RiskProfile{"a": a, "b": b}
			return p.IsComplete() == (a+b == RequiredTotal)
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
