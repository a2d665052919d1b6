package coverage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"api-param-coverage/internal/types"
)

func authAndLimitSpace() *Space {
	space := NewSpace()
	space.Add("header.Authorization", types.ParamSpec{
		Values:               []interface{}{"Bearer VALID", "Bearer EXPIRED", "Bearer MISSING_SCOPE"},
		Required:             true,
		BlocksLogicIfInvalid: true,
	})
	space.Add("query.limit", types.ParamSpec{
		Values: []interface{}{"10", "50", "100"},
	})
	return space
}

func TestSmartMinimalBlockingAndVariations(t *testing.T) {
	scenarios := SmartMinimal{}.Reduce(authAndLimitSpace())

	if len(scenarios) != 5 {
		t.Fatalf("Reduce() returned %d scenarios, want 5", len(scenarios))
	}

	expected := []struct {
		kind        types.ScenarioKind
		assignments map[string]interface{}
	}{
		{types.ScenarioBaseline, map[string]interface{}{"header.Authorization": "Bearer VALID", "query.limit": "10"}},
		{types.ScenarioVariation, map[string]interface{}{"header.Authorization": "Bearer VALID", "query.limit": "50"}},
		{types.ScenarioVariation, map[string]interface{}{"header.Authorization": "Bearer VALID", "query.limit": "100"}},
		{types.ScenarioNegative, map[string]interface{}{"header.Authorization": "Bearer EXPIRED"}},
		{types.ScenarioNegative, map[string]interface{}{"header.Authorization": "Bearer MISSING_SCOPE"}},
	}

	for i, want := range expected {
		got := scenarios[i]
		if got.Kind != want.kind {
			t.Errorf("scenario %d kind = %s, want %s", i, got.Kind, want.kind)
		}
		if !reflect.DeepEqual(got.Assignments, want.assignments) {
			t.Errorf("scenario %d assignments = %v, want %v", i, got.Assignments, want.assignments)
		}
	}
}

func TestSmartMinimalEmptySpace(t *testing.T) {
	scenarios := SmartMinimal{}.Reduce(NewSpace())
	if len(scenarios) != 0 {
		t.Errorf("Reduce() on empty space returned %d scenarios, want 0", len(scenarios))
	}
	if scenarios == nil {
		t.Error("Reduce() on empty space returned nil, want empty slice")
	}
}

func TestSmartMinimalSingleValueParam(t *testing.T) {
	space := NewSpace()
	space.Add("query.x", types.ParamSpec{Values: []interface{}{"x"}})
	space.Add("query.y", types.ParamSpec{Values: []interface{}{"y1", "y2"}})

	scenarios := SmartMinimal{}.Reduce(space)

	// x has a single value and contributes no variations.
	if len(scenarios) != 2 {
		t.Fatalf("Reduce() returned %d scenarios, want 2", len(scenarios))
	}
	for _, s := range scenarios {
		if s.Assignments["query.x"] != "x" {
			t.Errorf("query.x = %v, want x in every scenario", s.Assignments["query.x"])
		}
	}
}

func TestSmartMinimalNegativeIsolation(t *testing.T) {
	scenarios := SmartMinimal{}.Reduce(authAndLimitSpace())

	for i, s := range scenarios {
		if s.Kind != types.ScenarioNegative {
			continue
		}
		if len(s.Assignments) != 1 {
			t.Errorf("negative scenario %d has %d assignments, want exactly 1", i, len(s.Assignments))
		}
	}
}

func TestSmartMinimalDeterminism(t *testing.T) {
	space := authAndLimitSpace()

	first, err := json.Marshal(SmartMinimal{}.Reduce(space))
	if err != nil {
		t.Fatalf("failed to marshal first run: %v", err)
	}
	second, err := json.Marshal(SmartMinimal{}.Reduce(space))
	if err != nil {
		t.Fatalf("failed to marshal second run: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("repeated Reduce() runs differ:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestSmartMinimalLinearGrowth(t *testing.T) {
	// k non-blocking params with v_i values each must yield
	// 1 + sum(v_i - 1) scenarios, well below the cartesian product.
	space := NewSpace()
	valueCounts := []int{2, 3, 4}
	for i, n := range valueCounts {
		values := make([]interface{}, n)
		for j := range values {
			values[j] = fmt.Sprintf("p%d_v%d", i, j)
		}
		space.Add(fmt.Sprintf("query.p%d", i), types.ParamSpec{Values: values})
	}

	scenarios := SmartMinimal{}.Reduce(space)

	want := 1
	cartesian := 1
	for _, n := range valueCounts {
		want += n - 1
		cartesian *= n
	}
	if len(scenarios) != want {
		t.Errorf("Reduce() returned %d scenarios, want %d", len(scenarios), want)
	}
	if len(scenarios) >= cartesian {
		t.Errorf("scenario count %d not below cartesian product %d", len(scenarios), cartesian)
	}
}

func TestSmartMinimalUnionCoverage(t *testing.T) {
	// Every declared value of a non-blocking parameter must appear in at
	// least one scenario.
	space := NewSpace()
	space.Add("query.limit", types.ParamSpec{Values: []interface{}{"10", "50", "100"}})
	space.Add("query.sort", types.ParamSpec{Values: []interface{}{"asc", "desc"}})

	scenarios := SmartMinimal{}.Reduce(space)

	for _, key := range space.Keys() {
		spec, _ := space.Get(key)
		for _, want := range spec.Values {
			found := false
			for _, s := range scenarios {
				if s.Assignments[key] == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("value %v of %s not covered by any scenario", want, key)
			}
		}
	}
}

func TestSmartMinimalDedupe(t *testing.T) {
	// Two params whose alternatives collapse to the same assignment set
	// must not produce duplicate scenarios.
	space := NewSpace()
	space.Add("query.a", types.ParamSpec{Values: []interface{}{"v", "v"}})

	scenarios := SmartMinimal{}.Reduce(space)
	if len(scenarios) != 1 {
		t.Errorf("Reduce() returned %d scenarios, want 1 after dedupe", len(scenarios))
	}
}

func TestGreedyCoverCoversAllPairs(t *testing.T) {
	space := NewSpace()
	space.Add("header.Authorization", types.ParamSpec{Values: []interface{}{"Bearer VALID", "Bearer EXPIRED"}})
	space.Add("body.currency", types.ParamSpec{Values: []interface{}{"USD", "BRL", "EUR"}})

	scenarios := GreedyCover{}.Reduce(space)

	for _, key := range space.Keys() {
		spec, _ := space.Get(key)
		for _, want := range spec.Values {
			found := false
			for _, s := range scenarios {
				if s.Assignments[key] == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("value %v of %s not covered", want, key)
			}
		}
	}

	// Three values on one axis force at least three combos; greedy should
	// not need more.
	if len(scenarios) != 3 {
		t.Errorf("Reduce() returned %d scenarios, want 3", len(scenarios))
	}

	// Every scenario assigns every parameter.
	for i, s := range scenarios {
		if len(s.Assignments) != space.Len() {
			t.Errorf("scenario %d has %d assignments, want %d", i, len(s.Assignments), space.Len())
		}
	}
}

func TestGreedyCoverEmptySpace(t *testing.T) {
	scenarios := GreedyCover{}.Reduce(NewSpace())
	if len(scenarios) != 0 {
		t.Errorf("Reduce() on empty space returned %d scenarios, want 0", len(scenarios))
	}
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "default", input: "", want: "smart"},
		{name: "smart", input: "smart", want: "smart"},
		{name: "greedy", input: "greedy", want: "greedy"},
		{name: "unknown", input: "pairwise", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := StrategyByName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StrategyByName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && strategy.Name() != tt.want {
				t.Errorf("StrategyByName(%q).Name() = %s, want %s", tt.input, strategy.Name(), tt.want)
			}
		})
	}
}
