package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/anizeninc-lab/trading-algo/internal/backtest/engine"
	"gopkg.in/yaml.v2"
)

func main() {
	config := engine.DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	schemaPath := filepath.Join("./config", "backtest-engine-config.json")
	sampleConfigPath := filepath.Join("./config", "backtest-engine-config.yaml")

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		log.Fatalf("Failed to write schema to file: %v", err)
	}

	// write a sample config alongside the schema, unless one already exists
	if _, err := os.Stat(sampleConfigPath); os.IsNotExist(err) {
		sample, err := yaml.Marshal(config)
		if err != nil {
			log.Fatalf("Failed to marshal sample config: %v", err)
		}

		if err := os.WriteFile(sampleConfigPath, sample, 0644); err != nil {
			log.Fatalf("Failed to write sample config: %v", err)
		}
	}

	log.Printf("Schema written to %s", schemaPath)
}
