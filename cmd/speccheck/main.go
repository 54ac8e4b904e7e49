// Package main provides the speccheck CLI: it validates design spec YAML
// documents from disk and optionally prints a sanitized copy or the scalar
// parameters a document carries. It needs no server, database or backend
// connection.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/config"
	"github.com/protein-design-studio/internal/editor"
	"github.com/protein-design-studio/pkg/designspec"
)

func main() {
	clean := flag.Bool("clean", false, "print the sanitized document instead of the validation report")
	params := flag.Bool("params", false, "also print the scalar parameters recognized in the document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: speccheck [-clean] [-params] FILE...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadLiteConfig()
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	exitCode := 0
	for _, path := range flag.Args() {
		if !checkFile(logger, path, *clean, *params) {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// checkFile validates one document and reports the outcome. It returns
// false when the document is invalid or unreadable.
func checkFile(logger *logrus.Logger, path string, clean, params bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("file", path).Error("Failed to read document")
		return false
	}

	if clean {
		result := designspec.ValidateAndClean(string(data))
		fmt.Print(result.Content)
		return result.IsValid
	}

	// Feed the document through the same editing controller the form UI
	// uses, so the CLI reports exactly what the editor would show.
	controller := editor.NewController(editor.NewSession(), logger)
	defer controller.Close()
	controller.OnTextEdit(string(data))
	result := controller.Result()

	if result.IsValid {
		fmt.Printf("%s: ok\n", path)
	} else {
		fmt.Printf("%s: %d error(s)\n", path, len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  error: %s\n", msg)
		}
	}
	for _, msg := range result.Warnings {
		fmt.Printf("  warning: %s\n", msg)
	}

	if params {
		printParams(editor.Extract(controller.Document()))
	}
	return result.IsValid
}

func printParams(state editor.PartialState) {
	if state.Protocol != nil {
		fmt.Printf("  protocol: %s\n", *state.Protocol)
	}
	if state.NumDesigns != nil {
		fmt.Printf("  num_designs: %d\n", *state.NumDesigns)
	}
	if state.Budget != nil {
		fmt.Printf("  budget: %d\n", *state.Budget)
	}
	if state.FoldingModel != nil {
		fmt.Printf("  folding_model: %s\n", *state.FoldingModel)
	}
}
