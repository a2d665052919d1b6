package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Location identifies where a parameter lives in a request or response.
type Location string

const (
	LocationPath     Location = "path"
	LocationQuery    Location = "query"
	LocationHeader   Location = "header"
	LocationCookie   Location = "cookie"
	LocationBody     Location = "body"
	LocationResponse Location = "response"
)

// ValueType is the schema-level type of a parameter value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeArray   ValueType = "array"
	TypeObject  ValueType = "object"
	TypeUnknown ValueType = "unknown"
)

// ConstraintSet holds the constraints extracted from a schema node.
// Absent constraints are nil/zero, never present-but-null in JSON output.
type ConstraintSet struct {
	Enum         []interface{} `json:"enum,omitempty"`
	Pattern      string        `json:"pattern,omitempty"`
	MinLength    *int          `json:"minLength,omitempty"`
	MaxLength    *int          `json:"maxLength,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	ExclusiveMin bool          `json:"exclusiveMin,omitempty"`
	ExclusiveMax bool          `json:"exclusiveMax,omitempty"`
	MinItems     *int          `json:"minItems,omitempty"`
	MaxItems     *int          `json:"maxItems,omitempty"`
	Format       string        `json:"format,omitempty"`
}

// IsEmpty reports whether no constraint was extracted at all.
func (c ConstraintSet) IsEmpty() bool {
	return c.Enum == nil && c.Pattern == "" &&
		c.MinLength == nil && c.MaxLength == nil &&
		c.Min == nil && c.Max == nil &&
		!c.ExclusiveMin && !c.ExclusiveMax &&
		c.MinItems == nil && c.MaxItems == nil &&
		c.Format == ""
}

// DomainClass names a non-countable value domain classification.
type DomainClass string

const (
	DomainBounded      DomainClass = "bounded"
	DomainUnbounded    DomainClass = "unbounded"
	DomainAlphanumeric DomainClass = "alphanumeric"
	DomainStrict       DomainClass = "strict"
	DomainPartial      DomainClass = "partial"
	DomainUnknown      DomainClass = "unknown"
)

// ValueDomain is the classified size of a parameter's legal value set.
// It is either an exact count or a named class, computed once from the
// constraint set and value type.
type ValueDomain struct {
	Count   uint64
	Class   DomainClass
	IsExact bool
}

// ExactDomain builds a countable domain of n values.
func ExactDomain(n uint64) ValueDomain {
	return ValueDomain{Count: n, IsExact: true}
}

// NamedDomain builds a classified, non-countable domain.
func NamedDomain(class DomainClass) ValueDomain {
	return ValueDomain{Class: class}
}

// MarshalJSON emits either a number or the class name, matching the
// iterationCount wire contract.
func (d ValueDomain) MarshalJSON() ([]byte, error) {
	if d.IsExact {
		return json.Marshal(d.Count)
	}
	if d.Class == "" {
		return json.Marshal(string(DomainUnknown))
	}
	return json.Marshal(string(d.Class))
}

// UnmarshalJSON accepts both encodings.
func (d *ValueDomain) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = ExactDomain(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid iterationCount: %s", string(data))
	}
	*d = NamedDomain(DomainClass(s))
	return nil
}

// ParameterDescriptor describes one extracted parameter. Name is a dotted
// path for nested body/response fields (e.g. "address.city").
type ParameterDescriptor struct {
	Location    Location      `json:"location"`
	Name        string        `json:"name"`
	Type        ValueType     `json:"type"`
	Required    bool          `json:"required"`
	Constraints ConstraintSet `json:"constraints"`
	Domain      ValueDomain   `json:"iterationCount"`
	Notes       string        `json:"notes"`
}

// Endpoint is one operation found in the schema document, with every
// parameter extracted from its declaration, request body and 2xx responses.
type Endpoint struct {
	Path       string                `json:"path"`
	Method     string                `json:"method"`
	Parameters []ParameterDescriptor `json:"parameters"`
}

// ParamSpec is the reducer's input unit: the candidate values for one
// flattened parameter key plus the metadata the reduction rules depend on.
// The convention is that Values[0] is the valid/happy value.
type ParamSpec struct {
	Values               []interface{} `json:"values"`
	Required             bool          `json:"required"`
	BlocksLogicIfInvalid bool          `json:"blocksLogicIfInvalid"`
}

// ScenarioKind tags how a scenario was produced.
type ScenarioKind string

const (
	ScenarioBaseline  ScenarioKind = "baseline"
	ScenarioVariation ScenarioKind = "variation"
	ScenarioNegative  ScenarioKind = "negative"
)

// Scenario is one generated test scenario. Baseline and variation scenarios
// assign every parameter in the input space; negative scenarios assign
// exactly the one failing blocking parameter.
type Scenario struct {
	Assignments map[string]interface{} `json:"assignments"`
	Kind        ScenarioKind           `json:"kind"`
}

// Fingerprint returns a canonical identity for the scenario's assignment
// set: the sorted (key, value) tuples. Two scenarios with the same
// fingerprint are duplicates regardless of how they were generated.
func (s Scenario) Fingerprint() string {
	keys := make([]string, 0, len(s.Assignments))
	for k := range s.Assignments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, s.Assignments[k])
	}
	return b.String()
}
