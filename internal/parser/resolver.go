package parser

// RefTable maps every reusable definition in a document to its target node,
// merging the OpenAPI 3.x component locations with the Swagger 2.0 root
// locations so callers never care which flavor the ref came from.
//
// A RefTable is built once per Resolve call and is read-only afterwards, so
// it can be shared across endpoint workers without locking.
type RefTable struct {
	refs map[string]map[string]interface{}
}

// Resolve builds the ref lookup table for a document. It never fails: a
// document with no reusable definitions yields an empty (still usable) table.
func Resolve(doc Document) *RefTable {
	t := &RefTable{refs: make(map[string]map[string]interface{})}
	if doc == nil {
		return t
	}

	// OpenAPI 3.x component sections.
	if components, ok := doc["components"].(map[string]interface{}); ok {
		t.addSection(components, "schemas", "#/components/schemas/")
		t.addSection(components, "parameters", "#/components/parameters/")
		t.addSection(components, "responses", "#/components/responses/")
		t.addSection(components, "requestBodies", "#/components/requestBodies/")
	}

	// Swagger 2.0 root sections.
	if definitions, ok := doc["definitions"].(map[string]interface{}); ok {
		t.addAll(definitions, "#/definitions/")
	}
	if params, ok := doc["parameters"].(map[string]interface{}); ok {
		t.addAll(params, "#/parameters/")
	}
	if responses, ok := doc["responses"].(map[string]interface{}); ok {
		t.addAll(responses, "#/responses/")
	}

	return t
}

func (t *RefTable) addSection(parent map[string]interface{}, key, prefix string) {
	if section, ok := parent[key].(map[string]interface{}); ok {
		t.addAll(section, prefix)
	}
}

func (t *RefTable) addAll(section map[string]interface{}, prefix string) {
	for name, def := range section {
		if node, ok := def.(map[string]interface{}); ok {
			t.refs[prefix+name] = node
		}
	}
}

// Lookup returns the node a $ref string points at. Resolution is single-hop:
// if the target itself contains a nested $ref the caller re-invokes Lookup.
// A miss is not an error; the caller degrades the parameter to an unknown
// type and keeps going.
func (t *RefTable) Lookup(ref string) (map[string]interface{}, bool) {
	node, ok := t.refs[ref]
	return node, ok
}

// Len reports how many definitions were registered.
func (t *RefTable) Len() int {
	return len(t.refs)
}

// refString extracts the $ref value from a schema node, if any.
func refString(node map[string]interface{}) (string, bool) {
	ref, ok := node["$ref"].(string)
	return ref, ok && ref != ""
}
