package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Collection is a minimal Postman-style collection.
type Collection struct {
	Info CollectionInfo   `json:"info"`
	Item []CollectionItem `json:"item"`
}

// CollectionInfo identifies the collection.
type CollectionInfo struct {
	PostmanID string `json:"_postman_id"`
	Name      string `json:"name"`
	Schema    string `json:"schema"`
}

// CollectionItem is one request entry with an attached test script.
type CollectionItem struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Request ItemRequest `json:"request"`
	Event   []ItemEvent `json:"event"`
}

// ItemRequest holds the request method and URL.
type ItemRequest struct {
	Method string  `json:"method"`
	URL    ItemURL `json:"url"`
}

// ItemURL holds the raw request URL.
type ItemURL struct {
	Raw string `json:"raw"`
}

// ItemEvent attaches a script to a request lifecycle hook.
type ItemEvent struct {
	Listen string     `json:"listen"`
	Script ItemScript `json:"script"`
}

// ItemScript is the script body, one line per entry.
type ItemScript struct {
	Exec []string `json:"exec"`
}

const collectionSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// BuildCollection converts scenario rows into a Postman-style collection.
// The Gherkin text rides along as the item's test script so the scenario
// intent survives the export.
func BuildCollection(name string, rows []ScenarioRow) Collection {
	items := make([]CollectionItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, CollectionItem{
			ID:   uuid.NewString(),
			Name: row.EndpointName,
			Request: ItemRequest{
				Method: row.Method,
				URL:    ItemURL{Raw: row.Path},
			},
			Event: []ItemEvent{
				{
					Listen: "test",
					Script: ItemScript{Exec: strings.Split(row.Gherkin, "\n")},
				},
			},
		})
	}

	return Collection{
		Info: CollectionInfo{
			PostmanID: uuid.NewString(),
			Name:      name,
			Schema:    collectionSchema,
		},
		Item: items,
	}
}

// WriteCollection writes the collection JSON next to the source CSV path,
// swapping the extension for .postman.json, and returns the output path.
func WriteCollection(collection Collection, csvPath string) (string, error) {
	outPath := strings.TrimSuffix(csvPath, ".csv") + ".postman.json"

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal collection: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write collection file: %v", err)
	}
	return outPath, nil
}
