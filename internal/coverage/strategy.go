package coverage

import (
	"fmt"

	"api-param-coverage/internal/types"
)

// Strategy reduces a parameter space into a scenario set. Both
// implementations guarantee that every declared (parameter, value) pair
// appears in at least one scenario; they differ in how small the set is
// and whether blocking semantics are modeled.
type Strategy interface {
	Name() string
	Reduce(space *Space) []types.Scenario
}

// StrategyByName resolves a configured strategy name. SmartMinimal is the
// default: it is the only strategy that understands blocking parameters.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", SmartMinimal{}.Name():
		return SmartMinimal{}, nil
	case GreedyCover{}.Name():
		return GreedyCover{}, nil
	default:
		return nil, fmt.Errorf("unknown coverage strategy: %q", name)
	}
}

// SmartMinimal is the constraint-aware one-factor-at-a-time reducer.
//
// Parameters that are required and block business logic when invalid are
// pinned to their first (valid) value in the baseline and every variation:
// flipping them would fail the request before any other parameter is
// observable. Their alternative values instead produce isolated negative
// scenarios carrying only the one failing assignment.
type SmartMinimal struct{}

func (SmartMinimal) Name() string { return "smart" }

// Reduce produces, in order: one baseline, one variation per alternative
// value of each non-blocking parameter, and one negative per alternative
// value of each blocking parameter. Duplicate assignment sets collapse to
// the first occurrence.
func (SmartMinimal) Reduce(space *Space) []types.Scenario {
	if space.Len() == 0 {
		return []types.Scenario{}
	}

	var blocking, others []string
	for _, key := range space.Keys() {
		spec, _ := space.Get(key)
		if spec.Required && spec.BlocksLogicIfInvalid {
			blocking = append(blocking, key)
		} else {
			others = append(others, key)
		}
	}

	// Baseline: every parameter on its happy value.
	base := make(map[string]interface{}, space.Len())
	for _, key := range space.Keys() {
		spec, _ := space.Get(key)
		if len(spec.Values) > 0 {
			base[key] = spec.Values[0]
		} else {
			base[key] = nil
		}
	}

	scenarios := []types.Scenario{{Assignments: cloneAssignments(base), Kind: types.ScenarioBaseline}}

	// Variations: flip one non-blocking parameter at a time.
	for _, key := range others {
		spec, _ := space.Get(key)
		for _, alt := range alternatives(spec) {
			assignments := cloneAssignments(base)
			assignments[key] = alt
			scenarios = append(scenarios, types.Scenario{Assignments: assignments, Kind: types.ScenarioVariation})
		}
	}

	// Negatives: one isolated assignment per invalid blocking value.
	for _, key := range blocking {
		spec, _ := space.Get(key)
		for _, bad := range alternatives(spec) {
			scenarios = append(scenarios, types.Scenario{
				Assignments: map[string]interface{}{key: bad},
				Kind:        types.ScenarioNegative,
			})
		}
	}

	return dedupe(scenarios)
}

func alternatives(spec types.ParamSpec) []interface{} {
	if len(spec.Values) <= 1 {
		return nil
	}
	return spec.Values[1:]
}

func cloneAssignments(m map[string]interface{}) map[string]interface{} {
	clone := make(map[string]interface{}, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

func dedupe(scenarios []types.Scenario) []types.Scenario {
	seen := make(map[string]bool, len(scenarios))
	unique := make([]types.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		fp := s.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		unique = append(unique, s)
	}
	return unique
}

// GreedyCover is the plain set-cover reducer. It enumerates the full
// cartesian product and repeatedly picks the combination covering the most
// not-yet-covered (parameter, value) pairs. It ignores required/blocking
// metadata, so it produces a genuinely minimal cover but cannot isolate
// blocking failures. Candidate generation is exponential in the number of
// parameters; that cost is part of its contract.
type GreedyCover struct{}

func (GreedyCover) Name() string { return "greedy" }

func (GreedyCover) Reduce(space *Space) []types.Scenario {
	if space.Len() == 0 {
		return []types.Scenario{}
	}

	keys := space.Keys()
	candidates := cartesian(space)

	uncovered := make(map[string]bool)
	for _, key := range keys {
		spec, _ := space.Get(key)
		for _, v := range spec.Values {
			uncovered[pairID(key, v)] = true
		}
	}

	used := make([]bool, len(candidates))
	var scenarios []types.Scenario

	for len(uncovered) > 0 {
		best, bestGain := -1, 0
		for i, cand := range candidates {
			if used[i] {
				continue
			}
			gain := 0
			for key, v := range cand {
				if uncovered[pairID(key, v)] {
					gain++
				}
			}
			// Strict greater keeps the earliest candidate on ties, which
			// makes repeated runs identical.
			if gain > bestGain {
				best, bestGain = i, gain
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		for key, v := range candidates[best] {
			delete(uncovered, pairID(key, v))
		}

		kind := types.ScenarioVariation
		if len(scenarios) == 0 {
			kind = types.ScenarioBaseline
		}
		scenarios = append(scenarios, types.Scenario{
			Assignments: cloneAssignments(candidates[best]),
			Kind:        kind,
		})
	}

	return scenarios
}

// cartesian expands the full cross product in deterministic order: the
// first key varies slowest.
func cartesian(space *Space) []map[string]interface{} {
	combos := []map[string]interface{}{{}}
	for _, key := range space.Keys() {
		spec, _ := space.Get(key)
		values := spec.Values
		if len(values) == 0 {
			values = []interface{}{DefaultValue}
		}

		next := make([]map[string]interface{}, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				merged := cloneAssignments(combo)
				merged[key] = v
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}

func pairID(key string, v interface{}) string {
	return fmt.Sprintf("%s=%v", key, v)
}
