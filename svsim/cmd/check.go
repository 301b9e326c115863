package cmd

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check testbench format.",
	Long:  "`check [testbench folder path]` checks the testbench format.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr,
				"Error: testbench folder path argument is required")
			os.Exit(1)
		}
		folderPath := args[0]

		hasError := false

		node, errParse := parseTestbenchFile(folderPath)
		if errParse != nil {
			fmt.Printf("<1> Testbench error: %s\n", errParse)
			hasError = true
		} else {
			errSetup := checkSetupFunction(node)
			if errSetup != nil {
				fmt.Printf("<1a> Testbench structure error: %s\n", errSetup)
				hasError = true
			}
		}

		manifest, errManifest := checkManifestFile(folderPath)
		if errManifest != nil {
			fmt.Printf("<2> Manifest error: %v\n", errManifest)
			hasError = true
		} else {
			errName := checkManifestName(manifest)
			if errName != nil {
				fmt.Printf("<2a> Manifest name error: %s\n", errName)
				hasError = true
			}
			errSignals := checkManifestSignals(manifest)
			if errSignals != nil {
				fmt.Printf("<2b> Manifest signal error: %s\n", errSignals)
				hasError = true
			}
			errProcesses := checkManifestProcesses(manifest)
			if errProcesses != nil {
				fmt.Printf("<2b> Manifest process error: %s\n", errProcesses)
				hasError = true
			}
		}

		if hasError {
			os.Exit(1)
		} else {
			os.Exit(0)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func parseTestbenchFile(folderPath string) (*ast.File, error) {
	benchFilePath := filepath.Join(folderPath, "testbench.go")
	if _, err := os.Stat(benchFilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("testbench.go file does not exist")
	}

	fs := token.NewFileSet()
	node, err := parser.ParseFile(fs, benchFilePath, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse testbench.go file %s: %v",
			benchFilePath, err)
	}

	return node, nil
}

// checkSetupFunction requires a Setup function that takes exactly one
// argument, a pointer to a Simulation.
func checkSetupFunction(node *ast.File) error {
	for _, decl := range node.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Name.Name != "Setup" || funcDecl.Recv != nil {
			continue
		}

		if funcDecl.Type.Params.NumFields() != 1 {
			return fmt.Errorf(
				"`Setup` function must take exactly one argument")
		}

		param := funcDecl.Type.Params.List[0]
		star, ok := param.Type.(*ast.StarExpr)
		if !ok {
			return fmt.Errorf(
				"`Setup` function must take a pointer to Simulation")
		}

		sel, ok := star.X.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Simulation" {
			return fmt.Errorf(
				"`Setup` function must take a pointer to Simulation")
		}

		return nil
	}

	return fmt.Errorf("no `Setup` function in testbench.go")
}

func checkManifestFile(folderPath string) (map[string]any, error) {
	jsonFilePath := filepath.Join(folderPath, "manifest.json")
	if _, err := os.Stat(jsonFilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest.json file does not exist")
	}

	fileContent, err := os.ReadFile(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest.json: %v", err)
	}

	var manifest map[string]any
	if err := json.Unmarshal(fileContent, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest.json: %v", err)
	}

	return manifest, nil
}

func checkManifestName(manifest map[string]any) error {
	// Must have `name` attribute with a non-empty string value
	nameAtt, ok := manifest["name"].(string)
	if !ok || nameAtt == "" {
		return fmt.Errorf("manifest.json must contain a " +
			"non-empty 'name' attribute")
	}

	return nil
}

func checkManifestSignals(manifest map[string]any) error {
	if _, ok := manifest["signals"]; !ok {
		return fmt.Errorf("manifest.json must contain `signals` attribute")
	}

	return nil
}

func checkManifestProcesses(manifest map[string]any) error {
	if _, ok := manifest["processes"]; !ok {
		return fmt.Errorf("manifest.json must contain `processes` attribute")
	}

	return nil
}
