package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ScenarioRow is one generated scenario flattened for CSV export. The
// column set is what the Postman converter and the coverage reporter read
// back.
type ScenarioRow struct {
	APIName      string
	EndpointName string
	Method       string
	Path         string
	ScenarioID   string
	Kind         string
	Assignments  map[string]interface{}
	Gherkin      string
}

var csvHeader = []string{"apiName", "endpointName", "method", "path", "scenario_id", "kind", "assignments", "gherkin_and_curl"}

// WriteScenariosCSV writes scenario rows to <outDir>/bdd_scenarios.csv and
// returns the file path.
func WriteScenariosCSV(rows []ScenarioRow, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	outPath := filepath.Join(outDir, "bdd_scenarios.csv")
	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, row := range rows {
		assignments, err := json.Marshal(row.Assignments)
		if err != nil {
			return "", fmt.Errorf("failed to encode assignments for %s: %v", row.ScenarioID, err)
		}
		record := []string{
			row.APIName,
			row.EndpointName,
			row.Method,
			row.Path,
			row.ScenarioID,
			row.Kind,
			string(assignments),
			row.Gherkin,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %v", err)
	}
	return outPath, nil
}

// ReadScenariosCSV reads rows previously written by WriteScenariosCSV.
func ReadScenariosCSV(path string) ([]ScenarioRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range csvHeader {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV missing required column %q", required)
		}
	}

	rows := make([]ScenarioRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := ScenarioRow{
			APIName:      record[col["apiName"]],
			EndpointName: record[col["endpointName"]],
			Method:       record[col["method"]],
			Path:         record[col["path"]],
			ScenarioID:   record[col["scenario_id"]],
			Kind:         record[col["kind"]],
			Gherkin:      record[col["gherkin_and_curl"]],
		}
		if raw := record[col["assignments"]]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &row.Assignments); err != nil {
				return nil, fmt.Errorf("invalid assignments for %s: %v", row.ScenarioID, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
