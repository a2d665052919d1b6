package coverage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"api-param-coverage/internal/types"
)

// DefaultValue is the sentinel substituted for an empty value list so the
// reducer never receives an empty domain.
const DefaultValue = "<default>"

// Space is the reducer's input: flattened parameter keys in a fixed
// declaration order. Plain maps would randomize iteration between runs,
// which would break the deterministic-output contract, so the key order is
// kept explicitly.
type Space struct {
	keys  []string
	specs map[string]types.ParamSpec
}

// NewSpace creates an empty parameter space.
func NewSpace() *Space {
	return &Space{specs: make(map[string]types.ParamSpec)}
}

// Add registers a parameter under its flattened key. Re-adding an existing
// key replaces the spec but keeps the original position.
func (s *Space) Add(key string, spec types.ParamSpec) {
	if _, ok := s.specs[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.specs[key] = spec
}

// Keys returns the parameter keys in declaration order.
func (s *Space) Keys() []string {
	return s.keys
}

// Get returns the spec for a key.
func (s *Space) Get(key string) (types.ParamSpec, bool) {
	spec, ok := s.specs[key]
	return spec, ok
}

// Len reports the number of parameters in the space.
func (s *Space) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// CartesianSize is the size of the full value cross product, the number a
// reduction strategy is measured against.
func (s *Space) CartesianSize() uint64 {
	if s.Len() == 0 {
		return 0
	}
	size := uint64(1)
	for _, k := range s.keys {
		n := uint64(len(s.specs[k].Values))
		if n == 0 {
			n = 1
		}
		size *= n
	}
	return size
}

// ParamEntry is one parameter's entry in a collection document. It accepts
// both the plain form (a bare value list) and the rich form carrying
// required/blocksLogicIfInvalid metadata; absent metadata defaults to
// false.
type ParamEntry struct {
	Values               []interface{} `json:"values"`
	Required             bool          `json:"required"`
	BlocksLogicIfInvalid bool          `json:"blocksLogicIfInvalid"`
}

func (p *ParamEntry) UnmarshalJSON(data []byte) error {
	var plain []interface{}
	if err := json.Unmarshal(data, &plain); err == nil {
		p.Values = plain
		return nil
	}

	var rich struct {
		Values          []interface{} `json:"values"`
		Required        bool          `json:"required"`
		Blocks          bool          `json:"blocksLogicIfInvalid"`
		BlocksSnakeCase bool          `json:"blocks_logic_if_invalid"`
	}
	if err := json.Unmarshal(data, &rich); err != nil {
		return fmt.Errorf("invalid parameter entry: %w", err)
	}
	p.Values = rich.Values
	p.Required = rich.Required
	p.BlocksLogicIfInvalid = rich.Blocks || rich.BlocksSnakeCase
	return nil
}

// ParamSpace is the sectioned parameter-value declaration for one endpoint.
type ParamSpace struct {
	Headers map[string]ParamEntry `json:"headers"`
	Query   map[string]ParamEntry `json:"query"`
	Body    map[string]ParamEntry `json:"body"`
}

// Flatten merges the sections into one space keyed "<section>.<field>".
// Sections flatten in header, query, body order with fields sorted inside
// each section, so the resulting declaration order is reproducible.
func Flatten(ps ParamSpace) *Space {
	space := NewSpace()

	sections := []struct {
		prefix string
		fields map[string]ParamEntry
	}{
		{"header", ps.Headers},
		{"query", ps.Query},
		{"body", ps.Body},
	}

	for _, section := range sections {
		names := make([]string, 0, len(section.fields))
		for name := range section.fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			entry := section.fields[name]
			values := entry.Values
			if len(values) == 0 {
				values = []interface{}{DefaultValue}
			}
			space.Add(section.prefix+"."+name, types.ParamSpec{
				Values:               values,
				Required:             entry.Required,
				BlocksLogicIfInvalid: entry.BlocksLogicIfInvalid,
			})
		}
	}

	return space
}

// Collection is the top-level input document for scenario generation.
type Collection struct {
	APIs []API `json:"apis"`
}

// API groups the endpoints of one service.
type API struct {
	APIName   string               `json:"apiName"`
	Endpoints []CollectionEndpoint `json:"endpoints"`
}

// CollectionEndpoint declares one endpoint and its parameter space.
type CollectionEndpoint struct {
	Name       string     `json:"name"`
	Method     string     `json:"method"`
	Path       string     `json:"path"`
	ParamSpace ParamSpace `json:"param_space"`
}

// LoadCollection reads a collection document from disk.
func LoadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse collection file: %w", err)
	}
	return &collection, nil
}
