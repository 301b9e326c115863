package cmd

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed testbenchTemplate.txt
var testbenchTemplate string

//go:embed manifestTemplate.txt
var manifestTemplate string

var testbenchCmd = &cobra.Command{
	Use:   "testbench",
	Short: "Create and manage testbenches.",
	Long:  "`testbench --create [TestbenchName]` creates a new testbench.",
	Run: func(cmd *cobra.Command, args []string) {
		benchName, _ := cmd.Flags().GetString("create")
		if benchName != "" {
			if !inGitRepo() {
				log.Fatalf(
					"Error: This command must be run inside a Git repository.",
				)
			}

			err := createTestbenchFolder(benchName)
			if err != nil {
				log.Fatalf("Error creating testbench: %v", err)
			} else {
				fmt.Printf(
					"Testbench '%s' created successfully!\n",
					benchName,
				)
			}

			errFile := generateTestbenchFile(benchName)
			if errFile != nil {
				log.Fatalf("Error generating testbench file: %v\n", errFile)
			} else {
				fmt.Println("Testbench file generated successfully!")
			}

			errManifest := generateManifestFile(benchName)
			if errManifest != nil {
				log.Fatalf("Error generating manifest file: %v\n", errManifest)
			} else {
				fmt.Println("Manifest file generated successfully!")
			}
		} else {
			fmt.Println("Action not valid.")
		}
	},
}

func init() {
	rootCmd.AddCommand(testbenchCmd)
	testbenchCmd.Flags().String("create", "", "Create a new testbench")
}

// Check if current operation is in a Git repository
func inGitRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = filepath.Dir(".")

	output, err := cmd.Output()
	if err != nil {
		return false
	}

	return strings.TrimSpace(string(output)) == "true"
}

// Create folder for the new testbench
func createTestbenchFolder(name string) error {
	folder := strings.ToLower(name)

	_, err := os.Stat(folder)
	if err == nil {
		return fmt.Errorf("folder '%s' already exists", folder)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%v", err)
	}

	return os.MkdirAll(folder, 0755)
}

func renderTemplate(template, benchName string) string {
	content := strings.Replace(
		template, "{{packageName}}", strings.ToLower(benchName), -1)
	content = strings.Replace(content, "{{benchName}}", benchName, -1)

	return content
}

// Create testbench file for the new testbench
func generateTestbenchFile(benchName string) error {
	folder := strings.ToLower(benchName)

	_, errFind := os.Stat(folder)
	if os.IsNotExist(errFind) {
		return fmt.Errorf("failed to find folder %s", folder)
	} else if errFind != nil {
		return fmt.Errorf("%v", errFind)
	}

	filePath := filepath.Join(folder, "testbench.go")
	content := renderTemplate(testbenchTemplate, benchName)

	err := os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("%v", err)
	}

	return nil
}

// Create manifest file for the new testbench
func generateManifestFile(benchName string) error {
	folder := strings.ToLower(benchName)

	_, errFind := os.Stat(folder)
	if os.IsNotExist(errFind) {
		return fmt.Errorf("failed to find folder: %s", folder)
	} else if errFind != nil {
		return fmt.Errorf("%v", errFind)
	}

	filePath := filepath.Join(folder, "manifest.json")
	content := renderTemplate(manifestTemplate, benchName)

	err := os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("%v", err)
	}

	return nil
}
