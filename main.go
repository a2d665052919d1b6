package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"api-param-coverage/internal/config"
	"api-param-coverage/internal/coverage"
	"api-param-coverage/internal/exporter"
	"api-param-coverage/internal/generator"
	"api-param-coverage/internal/logger"
	"api-param-coverage/internal/parser"
	"api-param-coverage/internal/reporter"
	"api-param-coverage/internal/testdata"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "scenarios":
		runScenarios(os.Args[2:])
	case "postman":
		runPostman(os.Args[2:])
	case "values":
		runValues(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  api-param-coverage analyze -url <base-url> | -file <schema-file> [-output <dir>]")
	fmt.Println("  api-param-coverage scenarios -input <collection.json> [-outdir <dir>] [-strategy smart|greedy] [-llm]")
	fmt.Println("  api-param-coverage postman -csv <bdd_scenarios.csv>")
	fmt.Println("  api-param-coverage values -input <collection.json> -output <collection.json> -db-type <postgres|mysql|sqlserver> ...")
}

// runAnalyze fetches or loads a schema document and writes the extracted
// endpoint analysis as JSON.
func runAnalyze(args []string) {
	cmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	url := cmd.String("url", "", "Base URL of the service exposing the schema")
	file := cmd.String("file", "", "Path to a local schema JSON/YAML file")
	output := cmd.String("output", "output", "Output directory")
	if err := cmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	if (*url == "") == (*file == "") {
		fmt.Println("Error: exactly one of -url or -file is required")
		cmd.Usage()
		os.Exit(1)
	}

	var doc parser.Document
	var err error
	if *url != "" {
		fetcher := parser.NewFetcher(*url)
		result, fetchErr := fetcher.Fetch()
		if fetchErr != nil {
			log.Fatalf("Failed to fetch schema: %v", fetchErr)
		}
		fmt.Printf("Fetched schema from: %s\n", result.Source)
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
		doc = result.Document
	} else {
		doc, err = parser.LoadDocumentFile(*file)
		if err != nil {
			log.Fatalf("Failed to load schema: %v", err)
		}
	}

	cfg := loadConfig()
	analyzer := parser.NewAnalyzer(cfg.Analysis.MaxWorkers)
	analysis, err := analyzer.Analyze(doc)
	if err != nil {
		log.Fatalf("Failed to analyze schema: %v", err)
	}

	if err := os.MkdirAll(*output, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	outPath := filepath.Join(*output, "analysis.json")
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal analysis: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		log.Fatalf("Failed to write analysis: %v", err)
	}

	fmt.Printf("Analyzed %d endpoints\n", len(analysis.Endpoints))
	fmt.Printf("Analysis written to %s\n", outPath)
}

// runScenarios reduces every endpoint's parameter space, renders BDD text
// and writes the scenario CSV plus a run report.
func runScenarios(args []string) {
	cmd := flag.NewFlagSet("scenarios", flag.ExitOnError)
	input := cmd.String("input", "", "Path to collection JSON (apis/endpoints/param_space)")
	outdir := cmd.String("outdir", "output", "Output directory")
	strategyName := cmd.String("strategy", "", "Coverage strategy (smart|greedy)")
	useLLM := cmd.Bool("llm", false, "Generate Gherkin text via the configured LLM")
	if err := cmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if *input == "" {
		fmt.Println("Error: -input is required")
		cmd.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	if *strategyName == "" {
		*strategyName = cfg.Analysis.Strategy
	}
	strategy, err := coverage.StrategyByName(*strategyName)
	if err != nil {
		log.Fatalf("Failed to select strategy: %v", err)
	}

	collection, err := coverage.LoadCollection(*input)
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	runLogger, err := logger.NewLogger("logs")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer runLogger.Close()

	llmCfg := cfg.LLM
	if !*useLLM {
		llmCfg.APIKey = ""
	}
	bddGenerator := generator.NewBDDGenerator(&llmCfg, runLogger)

	start := time.Now()
	var rows []exporter.ScenarioRow
	var endpointReports []reporter.EndpointReport

	for _, api := range collection.APIs {
		for _, endpoint := range api.Endpoints {
			space := coverage.Flatten(endpoint.ParamSpace)
			scenarios := strategy.Reduce(space)

			meta := generator.EndpointMeta{
				APIName:      api.APIName,
				EndpointName: endpoint.Name,
				Method:       endpoint.Method,
				Path:         endpoint.Path,
			}
			bdd := bddGenerator.GenerateForEndpoint(context.Background(), meta, scenarios)

			for i, scenario := range scenarios {
				rows = append(rows, exporter.ScenarioRow{
					APIName:      api.APIName,
					EndpointName: endpoint.Name,
					Method:       endpoint.Method,
					Path:         endpoint.Path,
					ScenarioID:   bdd[i].ScenarioID,
					Kind:         string(scenario.Kind),
					Assignments:  scenario.Assignments,
					Gherkin:      bdd[i].Gherkin,
				})
			}

			endpointReports = append(endpointReports, reporter.EndpointMetrics(
				endpoint.Path, endpoint.Method, space.Len(), space.CartesianSize(), scenarios))
		}
	}

	csvPath, err := exporter.WriteScenariosCSV(rows, *outdir)
	if err != nil {
		log.Fatalf("Failed to write scenarios CSV: %v", err)
	}

	runReporter := reporter.NewReporter(reporter.ReportingConfig{
		Format:    cfg.Reporting.Format,
		OutputDir: cfg.Reporting.OutputDir,
		Detailed:  cfg.Reporting.Detailed,
	})
	if err := runReporter.GenerateReport(strategy.Name(), time.Since(start), endpointReports); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	fmt.Printf("Generated %d scenarios across %d endpoints\n", len(rows), len(endpointReports))
	fmt.Printf("Scenarios CSV written to %s\n", csvPath)
}

// runPostman converts a scenario CSV into a Postman-style collection.
func runPostman(args []string) {
	cmd := flag.NewFlagSet("postman", flag.ExitOnError)
	csvPath := cmd.String("csv", "", "Path to bdd_scenarios.csv")
	name := cmd.String("name", "api-param-coverage", "Collection name")
	if err := cmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if *csvPath == "" {
		fmt.Println("Error: -csv is required")
		cmd.Usage()
		os.Exit(1)
	}

	rows, err := exporter.ReadScenariosCSV(*csvPath)
	if err != nil {
		log.Fatalf("Failed to read scenarios CSV: %v", err)
	}

	collection := exporter.BuildCollection(*name, rows)
	outPath, err := exporter.WriteCollection(collection, *csvPath)
	if err != nil {
		log.Fatalf("Failed to write collection: %v", err)
	}

	fmt.Printf("Postman collection written to %s\n", outPath)
}

// runValues enriches a collection's empty value lists from a database.
func runValues(args []string) {
	cmd := flag.NewFlagSet("values", flag.ExitOnError)
	input := cmd.String("input", "", "Path to collection JSON")
	output := cmd.String("output", "", "Path for the enriched collection JSON")
	dbType := cmd.String("db-type", "", "Database type (postgres|mysql|sqlserver)")
	dbHost := cmd.String("db-host", "", "Database host")
	dbPort := cmd.Int("db-port", 0, "Database port")
	dbName := cmd.String("db-name", "", "Database name")
	dbUser := cmd.String("db-user", "", "Database user")
	dbPassword := cmd.String("db-password", "", "Database password")
	if err := cmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	if *input == "" || *output == "" {
		fmt.Println("Error: -input and -output are required")
		cmd.Usage()
		os.Exit(1)
	}
	if *dbType == "" || *dbHost == "" || *dbPort == 0 || *dbName == "" || *dbUser == "" || *dbPassword == "" {
		fmt.Println("Error: all database configuration flags are required")
		cmd.Usage()
		os.Exit(1)
	}

	collection, err := coverage.LoadCollection(*input)
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	provider := testdata.NewValueProvider(testdata.DBConfig{
		Type:     *dbType,
		Host:     *dbHost,
		Port:     *dbPort,
		Database: *dbName,
		User:     *dbUser,
		Password: *dbPassword,
	})
	if err := provider.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer provider.Close()

	for _, warning := range provider.Enrich(collection) {
		fmt.Printf("Warning: %s\n", warning)
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal collection: %v", err)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("Failed to write collection: %v", err)
	}

	fmt.Printf("Enriched collection written to %s\n", *output)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}
