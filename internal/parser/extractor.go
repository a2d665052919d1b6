package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"api-param-coverage/internal/types"
)

// maxFlattenDepth caps recursive schema flattening. Hitting the cap
// truncates further recursion; it is not an error.
const maxFlattenDepth = 10

var pathTemplateRe = regexp.MustCompile(`\{([^}]+)\}`)

// httpMethods is the canonical operation iteration order within a path item.
var httpMethods = []string{"get", "post", "put", "delete", "patch", "head", "options", "trace"}

// Extractor walks operations of a resolved document and flattens every
// parameter, request body field and 2xx response field into descriptors.
type Extractor struct {
	table *RefTable
}

// NewExtractor creates an extractor bound to a document's ref table.
func NewExtractor(table *RefTable) *Extractor {
	return &Extractor{table: table}
}

// Operation is one (path, method) pair found in the document together with
// the nodes the extractor needs to analyze it.
type Operation struct {
	Path         string
	Method       string
	Node         map[string]interface{}
	CommonParams []interface{}
}

// Operations lists every operation in the document in deterministic order:
// paths sorted alphabetically, methods in canonical HTTP order.
func (e *Extractor) Operations(doc Document) []Operation {
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		return nil
	}

	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var ops []Operation
	for _, path := range pathKeys {
		pathItem, ok := paths[path].(map[string]interface{})
		if !ok {
			continue
		}
		commonParams, _ := pathItem["parameters"].([]interface{})

		for _, method := range httpMethods {
			opNode, ok := pathItem[method].(map[string]interface{})
			if !ok {
				continue
			}
			ops = append(ops, Operation{
				Path:         path,
				Method:       strings.ToUpper(method),
				Node:         opNode,
				CommonParams: commonParams,
			})
		}
	}
	return ops
}

// ExtractEndpoints analyzes every operation sequentially.
func (e *Extractor) ExtractEndpoints(doc Document) []types.Endpoint {
	ops := e.Operations(doc)
	endpoints := make([]types.Endpoint, len(ops))
	for i, op := range ops {
		endpoints[i] = e.ExtractEndpoint(op)
	}
	return endpoints
}

// ExtractEndpoint flattens one operation into an Endpoint. Duplicate
// (location, name) pairs follow a last-wins policy: the later descriptor
// replaces the earlier one in place.
func (e *Extractor) ExtractEndpoint(op Operation) types.Endpoint {
	c := &paramCollector{index: make(map[string]int)}

	allParams := e.resolveParamList(append(append([]interface{}{}, op.CommonParams...), operationParams(op.Node)...))

	e.extractPathParams(op.Path, allParams, c)
	e.extractDeclaredParams(allParams, c)
	e.extractRequestBody(op.Node, allParams, c)
	e.extractResponses(op.Node, c)

	return types.Endpoint{
		Path:       op.Path,
		Method:     op.Method,
		Parameters: c.params,
	}
}

// paramCollector accumulates descriptors with last-wins semantics per
// (location, name), preserving first-occurrence order.
type paramCollector struct {
	params []types.ParameterDescriptor
	index  map[string]int
}

func (c *paramCollector) add(d types.ParameterDescriptor) {
	key := string(d.Location) + "\x00" + d.Name
	if i, ok := c.index[key]; ok {
		c.params[i] = d
		return
	}
	c.index[key] = len(c.params)
	c.params = append(c.params, d)
}

func operationParams(op map[string]interface{}) []interface{} {
	params, _ := op["parameters"].([]interface{})
	return params
}

// resolveParamList resolves parameter-level $refs so downstream passes see
// concrete parameter nodes. Unresolvable entries are kept as-is.
func (e *Extractor) resolveParamList(raw []interface{}) []map[string]interface{} {
	resolved := make([]map[string]interface{}, 0, len(raw))
	for _, p := range raw {
		node, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if ref, ok := refString(node); ok {
			if target, ok := e.table.Lookup(ref); ok {
				node = target
			}
		}
		resolved = append(resolved, node)
	}
	return resolved
}

// extractPathParams unions path-template placeholders with declared path
// parameters. A placeholder with no declaration is synthesized as a
// required string with no constraints.
func (e *Extractor) extractPathParams(path string, params []map[string]interface{}, c *paramCollector) {
	for _, match := range pathTemplateRe.FindAllStringSubmatch(path, -1) {
		name := match[1]

		var declared map[string]interface{}
		for _, p := range params {
			if p["name"] == name && p["in"] == "path" {
				declared = p
				break
			}
		}

		if declared != nil {
			c.add(e.analyzeParameter(declared, types.LocationPath))
			continue
		}

		constraints := types.ConstraintSet{}
		c.add(types.ParameterDescriptor{
			Location:    types.LocationPath,
			Name:        name,
			Type:        types.TypeString,
			Required:    true,
			Constraints: constraints,
			Domain:      classifyDomain(types.TypeString, constraints),
			Notes:       buildNotes(types.LocationPath, constraints),
		})
	}
}

func (e *Extractor) extractDeclaredParams(params []map[string]interface{}, c *paramCollector) {
	for _, p := range params {
		location, _ := p["in"].(string)
		if location == "" {
			location = "query"
		}
		switch types.Location(location) {
		case types.LocationQuery, types.LocationHeader, types.LocationCookie:
			c.add(e.analyzeParameter(p, types.Location(location)))
		}
	}
}

// analyzeParameter turns a declared parameter into a descriptor. OpenAPI 3.x
// parameters carry a schema child; Swagger 2.0 parameters inline the type
// and constraint keywords on the parameter node itself.
func (e *Extractor) analyzeParameter(param map[string]interface{}, location types.Location) types.ParameterDescriptor {
	name, _ := param["name"].(string)
	if name == "" {
		name = "unknown"
	}
	required, _ := param["required"].(bool)
	if location == types.LocationPath {
		required = true
	}

	schema, ok := param["schema"].(map[string]interface{})
	if !ok {
		schema = param
	}

	if ref, isRef := refString(schema); isRef {
		target, found := e.table.Lookup(ref)
		if !found {
			return types.ParameterDescriptor{
				Location: location,
				Name:     name,
				Type:     types.TypeUnknown,
				Required: required,
				Domain:   types.NamedDomain(types.DomainUnknown),
				Notes:    unresolvedNote(ref),
			}
		}
		schema = target
	}

	constraints := extractConstraints(schema)
	valueType := schemaType(schema)
	return types.ParameterDescriptor{
		Location:    location,
		Name:        name,
		Type:        valueType,
		Required:    required,
		Constraints: constraints,
		Domain:      classifyDomain(valueType, constraints),
		Notes:       buildNotes(location, constraints),
	}
}

// extractRequestBody handles both the OpenAPI 3.x requestBody node and the
// Swagger 2.0 body parameter.
func (e *Extractor) extractRequestBody(op map[string]interface{}, params []map[string]interface{}, c *paramCollector) {
	if body, ok := op["requestBody"].(map[string]interface{}); ok {
		if ref, isRef := refString(body); isRef {
			if target, found := e.table.Lookup(ref); found {
				body = target
			}
		}
		for _, schema := range contentSchemas(body) {
			e.flatten(schema, types.LocationBody, "", 0, map[string]bool{}, c)
		}
	}

	for _, p := range params {
		if p["in"] != "body" {
			continue
		}
		if schema, ok := p["schema"].(map[string]interface{}); ok {
			e.flatten(schema, types.LocationBody, "", 0, map[string]bool{}, c)
		}
	}
}

// extractResponses flattens 2xx response bodies, prefixing every field with
// response_<status>_ so response fields never collide with request fields.
func (e *Extractor) extractResponses(op map[string]interface{}, c *paramCollector) {
	responses, ok := op["responses"].(map[string]interface{})
	if !ok {
		return
	}

	statuses := make([]string, 0, len(responses))
	for status := range responses {
		if strings.HasPrefix(status, "2") {
			statuses = append(statuses, status)
		}
	}
	sort.Strings(statuses)

	for _, status := range statuses {
		response, ok := responses[status].(map[string]interface{})
		if !ok {
			continue
		}
		if ref, isRef := refString(response); isRef {
			if target, found := e.table.Lookup(ref); found {
				response = target
			}
		}

		prefix := fmt.Sprintf("response_%s_", status)
		for _, schema := range contentSchemas(response) {
			e.flatten(schema, types.LocationResponse, prefix, 0, map[string]bool{}, c)
		}
		// Swagger 2.0 responses attach the schema directly.
		if schema, ok := response["schema"].(map[string]interface{}); ok {
			e.flatten(schema, types.LocationResponse, prefix, 0, map[string]bool{}, c)
		}
	}
}

// contentSchemas returns the schema of each media type under a node's
// content map, in sorted media-type order.
func contentSchemas(node map[string]interface{}) []map[string]interface{} {
	content, ok := node["content"].(map[string]interface{})
	if !ok {
		return nil
	}

	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	var schemas []map[string]interface{}
	for _, mt := range mediaTypes {
		media, ok := content[mt].(map[string]interface{})
		if !ok {
			continue
		}
		if schema, ok := media["schema"].(map[string]interface{}); ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// deref follows a chain of $refs on a node. It returns the resolved node,
// the refs it marked as visited (the caller unmarks them after finishing
// the subtree), the first unresolvable ref, and the ref that closed a
// cycle, if any. Resolution table lookups are single-hop; deref supplies
// the re-invocation loop.
func (e *Extractor) deref(node map[string]interface{}, visited map[string]bool) (resolved map[string]interface{}, marked []string, missRef, cycleRef string) {
	for hop := 0; hop < maxFlattenDepth; hop++ {
		ref, ok := refString(node)
		if !ok {
			return node, marked, "", ""
		}
		if visited[ref] {
			return node, marked, "", ref
		}
		target, found := e.table.Lookup(ref)
		if !found {
			return node, marked, ref, ""
		}
		visited[ref] = true
		marked = append(marked, ref)
		node = target
	}
	return node, marked, "", "depth"
}

// flatten recursively walks object and array schemas, emitting one
// descriptor per field with a dotted-path name. Recursion stops at
// maxFlattenDepth or when a ref cycle is detected; both truncate quietly.
func (e *Extractor) flatten(schema map[string]interface{}, location types.Location, prefix string, depth int, visited map[string]bool, c *paramCollector) {
	if depth > maxFlattenDepth {
		return
	}

	schema, marked, missRef, cycleRef := e.deref(schema, visited)
	defer unmark(visited, marked)
	if missRef != "" {
		c.add(types.ParameterDescriptor{
			Location: location,
			Name:     flattenedBaseName(prefix, location),
			Type:     types.TypeUnknown,
			Domain:   types.NamedDomain(types.DomainUnknown),
			Notes:    unresolvedNote(missRef),
		})
		return
	}
	if cycleRef != "" {
		return
	}

	switch schemaType(schema) {
	case types.TypeObject:
		e.flattenObject(schema, location, prefix, depth, visited, c)
	case types.TypeArray:
		e.flattenArray(schema, location, flattenedBaseName(prefix, location), true, depth, visited, c)
	}
}

func (e *Extractor) flattenObject(schema map[string]interface{}, location types.Location, prefix string, depth int, visited map[string]bool, c *paramCollector) {
	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return
	}
	requiredFields := stringSet(schema["required"])

	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fullName := prefix + name
		required := requiredFields[name]

		prop, ok := properties[name].(map[string]interface{})
		if !ok {
			continue
		}

		prop, marked, missRef, cycleRef := e.deref(prop, visited)
		if missRef != "" {
			c.add(types.ParameterDescriptor{
				Location: location,
				Name:     fullName,
				Type:     types.TypeUnknown,
				Required: required,
				Domain:   types.NamedDomain(types.DomainUnknown),
				Notes:    unresolvedNote(missRef),
			})
			unmark(visited, marked)
			continue
		}
		if cycleRef != "" {
			c.add(types.ParameterDescriptor{
				Location: location,
				Name:     fullName,
				Type:     types.TypeObject,
				Required: required,
				Domain:   types.NamedDomain(types.DomainUnbounded),
				Notes:    fmt.Sprintf("circular reference: %s", cycleRef),
			})
			unmark(visited, marked)
			continue
		}

		switch propType := schemaType(prop); propType {
		case types.TypeArray:
			e.flattenArray(prop, location, fullName, required, depth+1, visited, c)
		default:
			constraints := extractConstraints(prop)
			c.add(types.ParameterDescriptor{
				Location:    location,
				Name:        fullName,
				Type:        propType,
				Required:    required,
				Constraints: constraints,
				Domain:      classifyDomain(propType, constraints),
				Notes:       buildNotes(location, constraints),
			})
			if propType == types.TypeObject {
				e.flatten(prop, location, fullName+".", depth+1, visited, c)
			}
		}
		unmark(visited, marked)
	}
}

// flattenArray emits one descriptor for the array itself, name suffixed [],
// and recurses into the item schema when it is object-typed.
func (e *Extractor) flattenArray(schema map[string]interface{}, location types.Location, baseName string, required bool, depth int, visited map[string]bool, c *paramCollector) {
	if depth > maxFlattenDepth {
		return
	}

	name := baseName + "[]"
	if baseName == "" {
		name = "array_item"
	}

	constraints := extractConstraints(schema)
	c.add(types.ParameterDescriptor{
		Location:    location,
		Name:        name,
		Type:        types.TypeArray,
		Required:    required,
		Constraints: constraints,
		Domain:      classifyDomain(types.TypeArray, constraints),
		Notes:       buildNotes(location, constraints),
	})

	items, ok := schema["items"].(map[string]interface{})
	if !ok {
		return
	}
	items, marked, missRef, cycleRef := e.deref(items, visited)
	defer unmark(visited, marked)
	if missRef != "" {
		c.add(types.ParameterDescriptor{
			Location: location,
			Name:     name + ".",
			Type:     types.TypeUnknown,
			Domain:   types.NamedDomain(types.DomainUnknown),
			Notes:    unresolvedNote(missRef),
		})
		return
	}
	if cycleRef != "" {
		return
	}
	if schemaType(items) == types.TypeObject {
		e.flatten(items, location, name+".", depth+1, visited, c)
	}
}

func unmark(visited map[string]bool, marked []string) {
	for _, ref := range marked {
		delete(visited, ref)
	}
}

// flattenedBaseName names a descriptor emitted for a whole body/response
// schema rather than one of its fields.
func flattenedBaseName(prefix string, location types.Location) string {
	base := strings.TrimSuffix(prefix, ".")
	if base == "" {
		return string(location)
	}
	return base
}

func unresolvedNote(ref string) string {
	return fmt.Sprintf("unresolved reference: %s", ref)
}

func stringSet(v interface{}) map[string]bool {
	set := make(map[string]bool)
	list, ok := v.([]interface{})
	if !ok {
		return set
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			set[s] = true
		}
	}
	return set
}
