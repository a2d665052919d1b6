package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"api-param-coverage/internal/types"
)

// Report summarizes one analysis run: how large the extracted parameter
// space was and how far the reducer compressed it.
type Report struct {
	RunID          string           `json:"run_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Strategy       string           `json:"strategy"`
	Duration       time.Duration    `json:"duration"`
	TotalEndpoints int              `json:"total_endpoints"`
	Endpoints      []EndpointReport `json:"endpoints"`
}

// EndpointReport holds per-endpoint reduction metrics.
type EndpointReport struct {
	Endpoint       string  `json:"endpoint"`
	Method         string  `json:"method"`
	Parameters     int     `json:"parameters"`
	CartesianSize  uint64  `json:"cartesian_size"`
	Scenarios      int     `json:"scenarios"`
	Baseline       int     `json:"baseline"`
	Variations     int     `json:"variations"`
	Negatives      int     `json:"negatives"`
	ReductionRatio float64 `json:"reduction_ratio"`
}

// Reporter handles the generation of analysis reports
type Reporter struct {
	config ReportingConfig
}

// ReportingConfig holds the configuration for reporting
type ReportingConfig struct {
	Format    []string
	OutputDir string
	Detailed  bool
}

// NewReporter creates a new instance of Reporter
func NewReporter(config ReportingConfig) *Reporter {
	return &Reporter{
		config: config,
	}
}

// EndpointMetrics builds the per-endpoint report entry from its parameter
// count, cartesian size and generated scenarios.
func EndpointMetrics(path, method string, parameters int, cartesianSize uint64, scenarios []types.Scenario) EndpointReport {
	r := EndpointReport{
		Endpoint:      path,
		Method:        method,
		Parameters:    parameters,
		CartesianSize: cartesianSize,
		Scenarios:     len(scenarios),
	}
	for _, s := range scenarios {
		switch s.Kind {
		case types.ScenarioBaseline:
			r.Baseline++
		case types.ScenarioVariation:
			r.Variations++
		case types.ScenarioNegative:
			r.Negatives++
		}
	}
	if cartesianSize > 0 {
		r.ReductionRatio = float64(len(scenarios)) / float64(cartesianSize)
	}
	return r
}

// GenerateReport writes the run report in each configured format.
func (r *Reporter) GenerateReport(strategy string, duration time.Duration, endpoints []EndpointReport) error {
	report := Report{
		RunID:          uuid.NewString(),
		Timestamp:      time.Now(),
		Strategy:       strategy,
		Duration:       duration,
		TotalEndpoints: len(endpoints),
		Endpoints:      endpoints,
	}

	for _, format := range r.config.Format {
		switch format {
		case "json":
			if err := r.generateJSONReport(report); err != nil {
				return fmt.Errorf("failed to generate JSON report: %v", err)
			}
		case "csv":
			if err := r.generateCSVReport(report); err != nil {
				return fmt.Errorf("failed to generate CSV report: %v", err)
			}
		default:
			return fmt.Errorf("unsupported report format: %s", format)
		}
	}

	return nil
}

// generateJSONReport generates a JSON format report
func (r *Reporter) generateJSONReport(report Report) error {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return err
	}

	reportPath := filepath.Join(r.config.OutputDir, fmt.Sprintf("report_%s.json", report.Timestamp.Format("20060102_150405")))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(reportPath, data, 0644)
}

// generateCSVReport generates a CSV format report with one row per endpoint
func (r *Reporter) generateCSVReport(report Report) error {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return err
	}

	reportPath := filepath.Join(r.config.OutputDir, fmt.Sprintf("report_%s.csv", report.Timestamp.Format("20060102_150405")))
	file, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"endpoint", "method", "parameters", "cartesian_size", "scenarios", "baseline", "variations", "negatives", "reduction_ratio"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, e := range report.Endpoints {
		record := []string{
			e.Endpoint,
			e.Method,
			strconv.Itoa(e.Parameters),
			strconv.FormatUint(e.CartesianSize, 10),
			strconv.Itoa(e.Scenarios),
			strconv.Itoa(e.Baseline),
			strconv.Itoa(e.Variations),
			strconv.Itoa(e.Negatives),
			strconv.FormatFloat(e.ReductionRatio, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
