package parser

import (
	"fmt"
	"math"
	"strings"

	"api-param-coverage/internal/types"
)

// alphanumericPattern is classified specially: it is by far the most common
// identifier pattern and maps cleanly to a generatable value class.
const alphanumericPattern = "^[a-zA-Z0-9]+$"

// extractConstraints reads the constraint keywords off a schema node.
// Numeric values arrive as float64 from JSON and int from YAML, so every
// read goes through a coercion helper.
func extractConstraints(schema map[string]interface{}) types.ConstraintSet {
	var c types.ConstraintSet
	if schema == nil {
		return c
	}

	if enum, ok := schema["enum"].([]interface{}); ok {
		c.Enum = enum
	}
	if pattern, ok := schema["pattern"].(string); ok {
		c.Pattern = pattern
	}
	if v, ok := toInt(schema["minLength"]); ok {
		c.MinLength = &v
	}
	if v, ok := toInt(schema["maxLength"]); ok {
		c.MaxLength = &v
	}
	if v, ok := toFloat(schema["minimum"]); ok {
		c.Min = &v
	}
	if v, ok := toFloat(schema["maximum"]); ok {
		c.Max = &v
	}
	c.ExclusiveMin = truthy(schema["exclusiveMinimum"])
	c.ExclusiveMax = truthy(schema["exclusiveMaximum"])
	if v, ok := toInt(schema["minItems"]); ok {
		c.MinItems = &v
	}
	if v, ok := toInt(schema["maxItems"]); ok {
		c.MaxItems = &v
	}
	if format, ok := schema["format"].(string); ok {
		c.Format = format
	}

	return c
}

// schemaType determines the value type of a schema node. A node with
// properties is an object regardless of its declared type; a node with no
// type at all defaults to string, matching how most documents in the wild
// omit the keyword for plain strings.
func schemaType(schema map[string]interface{}) types.ValueType {
	if schema == nil {
		return types.TypeUnknown
	}

	declared, _ := schema["type"].(string)
	if declared == "array" {
		return types.TypeArray
	}
	if declared == "object" {
		return types.TypeObject
	}
	if _, ok := schema["properties"]; ok {
		return types.TypeObject
	}
	if declared == "" {
		return types.TypeString
	}
	return types.ValueType(declared)
}

// classifyDomain computes the iteration domain for a parameter. It is a
// pure function of the value type and constraint set; the same inputs
// always classify identically.
//
// Exact counts for numeric ranges assume an integer domain. Non-integer
// (type "number") ranges classify as bounded instead of producing a count,
// since a float range has no meaningful cardinality.
func classifyDomain(valueType types.ValueType, c types.ConstraintSet) types.ValueDomain {
	if c.Enum != nil {
		return types.ExactDomain(uint64(len(c.Enum)))
	}

	if valueType == types.TypeBoolean {
		return types.ExactDomain(2)
	}

	if valueType == types.TypeInteger || valueType == types.TypeNumber {
		if c.Min != nil && c.Max != nil {
			if valueType == types.TypeInteger {
				return types.ExactDomain(integerRangeCount(c))
			}
			return types.NamedDomain(types.DomainBounded)
		}
		if c.Min != nil || c.Max != nil {
			return types.NamedDomain(types.DomainBounded)
		}
	}

	if c.Pattern != "" {
		switch {
		case c.Pattern == alphanumericPattern:
			return types.NamedDomain(types.DomainAlphanumeric)
		case strings.Contains(c.Pattern, "^") && strings.Contains(c.Pattern, "$"):
			return types.NamedDomain(types.DomainStrict)
		default:
			return types.NamedDomain(types.DomainPartial)
		}
	}

	if valueType == types.TypeArray {
		if c.MinItems != nil && c.MaxItems != nil {
			n := *c.MaxItems - *c.MinItems + 1
			if n < 0 {
				n = 0
			}
			return types.ExactDomain(uint64(n))
		}
		if c.MinItems != nil || c.MaxItems != nil {
			return types.NamedDomain(types.DomainBounded)
		}
	}

	if valueType == types.TypeObject {
		return types.NamedDomain(types.DomainUnbounded)
	}

	if valueType == types.TypeString {
		if c.MinLength != nil || c.MaxLength != nil {
			return types.NamedDomain(types.DomainBounded)
		}
		return types.NamedDomain(types.DomainUnbounded)
	}

	return types.NamedDomain(types.DomainUnknown)
}

// integerRangeCount counts the values of a closed integer range, adjusting
// one step inward per exclusive bound.
func integerRangeCount(c types.ConstraintSet) uint64 {
	min := math.Ceil(*c.Min)
	max := math.Floor(*c.Max)
	if c.ExclusiveMin {
		min++
	}
	if c.ExclusiveMax {
		max--
	}
	if max < min {
		return 0
	}
	return uint64(max - min + 1)
}

// buildNotes assembles the human-readable test design notes for a
// parameter from its location and constraints.
func buildNotes(location types.Location, c types.ConstraintSet) string {
	var notes []string

	if location == types.LocationPath {
		notes = append(notes, "Path parameter - always required")
	}

	if c.Enum != nil {
		notes = append(notes, fmt.Sprintf("Enum with %d values", len(c.Enum)))
	}
	if c.Pattern != "" {
		notes = append(notes, fmt.Sprintf("Pattern constraint: %s", c.Pattern))
	}
	if c.MinLength != nil || c.MaxLength != nil {
		minLen := "0"
		if c.MinLength != nil {
			minLen = fmt.Sprintf("%d", *c.MinLength)
		}
		maxLen := "unlimited"
		if c.MaxLength != nil {
			maxLen = fmt.Sprintf("%d", *c.MaxLength)
		}
		notes = append(notes, fmt.Sprintf("Length: %s-%s", minLen, maxLen))
	}
	if c.Min != nil || c.Max != nil {
		notes = append(notes, fmt.Sprintf("Range: %s-%s", formatBound(c.Min), formatBound(c.Max)))
	}
	if c.Format != "" {
		notes = append(notes, fmt.Sprintf("Format: %s", c.Format))
	}

	if c.IsEmpty() {
		notes = append(notes, "No constraints - consider boundary and negative testing")
	}

	if len(notes) == 0 {
		return "Standard parameter"
	}
	return strings.Join(notes, "; ")
}

func formatBound(v *float64) string {
	if v == nil {
		return "unbounded"
	}
	if *v == math.Trunc(*v) {
		return fmt.Sprintf("%d", int64(*v))
	}
	return fmt.Sprintf("%g", *v)
}

// toFloat coerces the numeric representations produced by the JSON and
// YAML decoders.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// truthy mirrors the loose exclusive-bound semantics across spec versions:
// a boolean flag in 3.0 and Swagger 2.0, a number in 3.1.
func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	default:
		_, isNumber := toFloat(v)
		return isNumber
	}
}
