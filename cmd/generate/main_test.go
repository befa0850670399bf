package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "generate-cmd-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	// main writes relative to the working directory
	err = os.Chdir(tempDir)
	suite.Require().NoError(err)
}

func (suite *GenerateCmdTestSuite) TearDownTest() {
	err := os.RemoveAll(suite.tempDir)
	suite.Require().NoError(err)
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	main()

	schemaPath := filepath.Join(suite.tempDir, "config", "backtest-engine-config.json")
	content, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)
	suite.NotEmpty(content, "Schema file should not be empty")
	suite.Contains(string(content), "initial_capital")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	main()

	samplePath := filepath.Join(suite.tempDir, "config", "backtest-engine-config.yaml")
	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.NotEmpty(content, "Sample config file should not be empty")
	suite.Contains(string(content), "initial_capital")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	samplePath := filepath.Join(suite.tempDir, "config", "backtest-engine-config.yaml")
	err := os.MkdirAll(filepath.Dir(samplePath), 0755)
	suite.Require().NoError(err)

	original := []byte("# hand edited\ninitial_capital: 42\n")
	err = os.WriteFile(samplePath, original, 0644)
	suite.Require().NoError(err)

	main()

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal(string(original), string(content), "Existing sample config should not be overwritten")
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}
