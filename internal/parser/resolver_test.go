package parser

import "testing"

func TestResolveMergesAllRefLocations(t *testing.T) {
	doc := Document{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"User": map[string]interface{}{"type": "object"},
			},
			"parameters": map[string]interface{}{
				"PageParam": map[string]interface{}{"name": "page", "in": "query"},
			},
			"responses": map[string]interface{}{
				"NotFound": map[string]interface{}{"description": "not found"},
			},
			"requestBodies": map[string]interface{}{
				"CreateUser": map[string]interface{}{"content": map[string]interface{}{}},
			},
		},
		"definitions": map[string]interface{}{
			"Pet": map[string]interface{}{"type": "object"},
		},
		"parameters": map[string]interface{}{
			"LimitParam": map[string]interface{}{"name": "limit", "in": "query"},
		},
		"responses": map[string]interface{}{
			"Error": map[string]interface{}{"description": "error"},
		},
	}

	table := Resolve(doc)

	refs := []string{
		"#/components/schemas/User",
		"#/components/parameters/PageParam",
		"#/components/responses/NotFound",
		"#/components/requestBodies/CreateUser",
		"#/definitions/Pet",
		"#/parameters/LimitParam",
		"#/responses/Error",
	}
	for _, ref := range refs {
		if _, ok := table.Lookup(ref); !ok {
			t.Errorf("Lookup(%q) missed, want hit", ref)
		}
	}
	if table.Len() != len(refs) {
		t.Errorf("table has %d entries, want %d", table.Len(), len(refs))
	}
}

func TestLookupMiss(t *testing.T) {
	table := Resolve(Document{})
	if _, ok := table.Lookup("#/components/schemas/Nope"); ok {
		t.Error("Lookup() on empty table returned a hit")
	}
}

func TestLookupIsSingleHop(t *testing.T) {
	doc := Document{
		"definitions": map[string]interface{}{
			"Outer": map[string]interface{}{"$ref": "#/definitions/Inner"},
			"Inner": map[string]interface{}{"type": "string"},
		},
	}

	table := Resolve(doc)

	node, ok := table.Lookup("#/definitions/Outer")
	if !ok {
		t.Fatal("Lookup(#/definitions/Outer) missed")
	}
	// The nested ref stays in place; the caller re-invokes Lookup.
	if ref, hasRef := refString(node); !hasRef || ref != "#/definitions/Inner" {
		t.Errorf("resolved node = %v, want it to retain the nested $ref", node)
	}
}

func TestResolveNilDocument(t *testing.T) {
	table := Resolve(nil)
	if table.Len() != 0 {
		t.Errorf("Resolve(nil) table has %d entries, want 0", table.Len())
	}
}
