package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Fetcher retrieves a schema document from a service's well-known swagger
// locations.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher creates a new Fetcher for the given base URL.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// FetchResult carries the parsed document plus any non-fatal validation
// warnings collected while loading it.
type FetchResult struct {
	Document Document
	Source   string
	Warnings []string
}

// Fetch tries the known swagger documentation URLs in order and parses the
// first one that responds.
func (f *Fetcher) Fetch() (*FetchResult, error) {
	urls := []string{
		fmt.Sprintf("%s/swagger/v1/swagger.json", f.baseURL),
		fmt.Sprintf("%s/swagger.json", f.baseURL),
		fmt.Sprintf("%s/v1/swagger.json", f.baseURL),
		fmt.Sprintf("%s/api/swagger.json", f.baseURL),
		fmt.Sprintf("%s/api/v1/swagger.json", f.baseURL),
		fmt.Sprintf("%s/openapi.json", f.baseURL),
		fmt.Sprintf("%s/swagger", f.baseURL),
	}

	var lastErr error
	for _, url := range urls {
		result, err := f.fetchOne(url)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to fetch schema document from any known URL, last error: %w", lastErr)
}

func (f *Fetcher) fetchOne(url string) (*FetchResult, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Document: doc, Source: url}
	if schemaType, _ := DetectSchemaType(doc); schemaType == SchemaTypeOpenAPI {
		result.Warnings = validateOpenAPI3(body)
	}
	return result, nil
}

// validateOpenAPI3 runs an OpenAPI 3.x document through the kin-openapi
// loader. Loader complaints are surfaced as warnings only; the analysis
// pipeline works on the raw document and tolerates imperfect specs.
func validateOpenAPI3(data []byte) []string {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return []string{fmt.Sprintf("openapi loader: %v", err)}
	}
	if err := doc.Validate(context.Background()); err != nil {
		return []string{fmt.Sprintf("openapi validation: %v", err)}
	}
	return nil
}
