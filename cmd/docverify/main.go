// Command docverify scores documents from the command line or runs the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anime-shed/document-verification-go/internal/config"
	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/internal/factory"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/server"
	"github.com/anime-shed/document-verification-go/internal/service"
	"github.com/anime-shed/document-verification-go/pkg/models"
	"github.com/anime-shed/document-verification-go/pkg/validation"
)

var (
	version = "1.0.0"

	jsonOutput  bool
	failOnFraud bool
	languages   string

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "docverify",
	Short:         "Document authenticity scoring",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Score local files without storing them",
	Long: `Runs the same quality, OCR and scoring pipeline as the API on local
files and prints the verdict for each. Nothing is written to disk or to the
database.

Examples:
  docverify scan passport.png contract.pdf
  docverify scan --json --lang eng scans/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		return server.Run(cfg)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	scanCmd.Flags().BoolVar(&failOnFraud, "fail-on-fraud", false, "exit with status 2 when any file is flagged")
	scanCmd.Flags().StringVar(&languages, "lang", "", "OCR languages, e.g. uzb+eng+rus (default from OCR_LANGUAGES)")

	rootCmd.AddCommand(scanCmd, serveCmd)
}

// scanResult is the JSON shape of one scanned file
type scanResult struct {
	File        string              `json:"file"`
	Fingerprint string              `json:"file_hash,omitempty"`
	MediaType   string              `json:"media_type,omitempty"`
	Status      models.Status       `json:"status,omitempty"`
	Analysis    *models.ScoreResult `json:"analysis,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if languages != "" {
		cfg.OCRLanguages = config.SplitList(languages)
	}
	// Keep stdout clean for the report
	logger.SetLevel("error")

	pipeline := factory.NewPipelineFactory(nil).CreatePipeline(cfg)
	validator := validation.NewUploadValidator(nil)

	results := make([]scanResult, 0, len(args))
	flagged := false
	for _, path := range args {
		res := scanFile(cmd.Context(), pipeline, validator, path)
		if res.Status == models.StatusFraud {
			flagged = true
		}
		results = append(results, res)
		if !jsonOutput {
			printResult(cmd.OutOrStdout(), res)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}

	if failOnFraud && flagged {
		os.Exit(2)
	}
	return nil
}

func scanFile(ctx context.Context, pipeline *service.Pipeline, validator *validation.UploadValidator, path string) scanResult {
	res := scanResult{File: path}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validator.ValidateFilename(filepath.Base(path)); err != nil {
		res.Error = err.Error()
		return res
	}

	doc := models.Document{
		Filename: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}

	data, fp, err := pipeline.Identify(doc)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	src := document.NewSource(data)
	eval := pipeline.Evaluate(ctx, src)
	res.Fingerprint = fp
	res.MediaType = src.MediaType
	res.Status = models.StatusFromVerdict(eval.Result.IsFraud)
	res.Analysis = &eval.Result
	return res
}

func printResult(w io.Writer, res scanResult) {
	colorCyan.Fprintf(w, "%s\n", res.File)
	if res.Error != "" {
		colorRed.Fprintf(w, "  error: %s\n\n", res.Error)
		return
	}

	verdict := colorGreen
	if res.Status == models.StatusFraud {
		verdict = colorRed
	}
	verdict.Fprintf(w, "  %s", res.Status)
	fmt.Fprintf(w, "  confidence %.2f  score %d\n", res.Analysis.Confidence, res.Analysis.FraudScore)
	fmt.Fprintf(w, "  sha256 %s  %s\n", res.Fingerprint, res.MediaType)
	if f := res.Analysis.Features; f != nil {
		fmt.Fprintf(w, "  sharpness %.1f  contrast %.1f  brightness %.1f  edges %.3f\n",
			f.Sharpness, f.Contrast, f.Brightness, f.EdgeDensity)
	}
	for _, reason := range res.Analysis.Reasons {
		colorYellow.Fprintf(w, "  - %s\n", reason)
	}
	fmt.Fprintln(w)
}
