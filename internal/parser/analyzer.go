package parser

import (
	"sync"

	"api-param-coverage/internal/types"
)

// Analysis is the JSON-serializable result of analyzing one document.
type Analysis struct {
	Endpoints []types.Endpoint `json:"endpoints"`
}

// Analyzer runs document validation, ref resolution and per-endpoint
// extraction. Endpoints are independent, so extraction fans out across a
// bounded worker pool; each worker writes to its own result slot, keeping
// document order without locks on the output.
type Analyzer struct {
	maxWorkers int
}

// NewAnalyzer creates an analyzer. maxWorkers values below 1 fall back to
// serial extraction.
func NewAnalyzer(maxWorkers int) *Analyzer {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Analyzer{maxWorkers: maxWorkers}
}

// Analyze validates the document, builds its ref table and extracts every
// operation. Validation failures abort the run; everything downstream
// degrades per parameter instead of failing.
func (a *Analyzer) Analyze(doc Document) (*Analysis, error) {
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	table := Resolve(doc)
	extractor := NewExtractor(table)
	ops := extractor.Operations(doc)

	endpoints := make([]types.Endpoint, len(ops))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.maxWorkers)
	for i, op := range ops {
		wg.Add(1)
		go func(slot int, op Operation) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			endpoints[slot] = extractor.ExtractEndpoint(op)
		}(i, op)
	}
	wg.Wait()

	return &Analysis{Endpoints: endpoints}, nil
}
