package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/echiveai-alt/funnytime2-sub001/internal/db"
	"github.com/echiveai-alt/funnytime2-sub001/internal/observability"
	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

var (
	analyzeJobPath       string
	analyzeCandidatePath string
	analyzeMatchMode     string
	analyzeUserID        string
	analyzeOutPath       string
	analyzeVerbose       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one job-fit analysis",
	Long: `Extract requirements from a job description, score the candidate against them and,
for a fit, generate tailored resume bullets. The candidate comes from --candidate or,
when omitted, from the database at DATABASE_URL.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJobPath, "job", "", "Path to the job description text file (\"-\" reads stdin)")
	analyzeCmd.Flags().StringVar(&analyzeCandidatePath, "candidate", "", "Path to a candidate profile JSON file")
	analyzeCmd.Flags().StringVar(&analyzeMatchMode, "match-mode", "", "Keyword match mode: exact or flexible")
	analyzeCmd.Flags().StringVar(&analyzeUserID, "user", "local", "User ID for the cache, quota and database lookup")
	analyzeCmd.Flags().StringVarP(&analyzeOutPath, "out", "o", "", "Write the JSON result to this file instead of stdout")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print each stage's output")
	_ = analyzeCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	matchMode := types.MatchMode(strings.ToLower(strings.TrimSpace(analyzeMatchMode)))
	if matchMode != "" && !matchMode.Valid() {
		return fmt.Errorf("invalid --match-mode %q (want exact or flexible)", analyzeMatchMode)
	}

	jobDescription, err := readJobDescription(analyzeJobPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
	}

	var candidates pipeline.CandidateSource
	switch {
	case analyzeCandidatePath != "":
		candidates, err = loadCandidateFile(analyzeCandidatePath)
		if err != nil {
			return err
		}
	case database != nil:
		candidates = database
	default:
		return fmt.Errorf("candidate data is required (use --candidate or set DATABASE_URL)")
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeClient(client)

	store, closeStore, err := newCacheStore(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeStore()

	deps := stageDeps{
		Candidates: candidates,
		Cache:      newCache(store, cfg, logger),
		Logger:     logger,
	}
	if database != nil {
		deps.Quota = newQuota(database)
	}

	var printer *observability.Printer
	if analyzeVerbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
		deps.OnProgress = printer.PrintProgress
	}

	result, err := newOrchestrator(client, cfg, deps).Analyze(ctx, types.AnalysisRequest{
		UserID:           analyzeUserID,
		JobDescription:   jobDescription,
		KeywordMatchType: matchMode,
	})
	if err != nil {
		return err
	}

	if printer != nil {
		printVerbose(printer, result)
	}
	return writeResult(cmd.OutOrStdout(), analyzeOutPath, result)
}

func readJobDescription(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return string(data), nil
}

func printVerbose(p *observability.Printer, result *types.AnalysisResult) {
	p.PrintRequirements(&types.Stage1Result{
		JobTitle:        result.JobTitle,
		CompanySummary:  result.CompanySummary,
		JobRequirements: result.JobRequirements,
		AllKeywords:     result.AllKeywords,
	})
	p.PrintFitAssessment(&result.FitAssessment)
	if result.Bullets != nil {
		p.PrintBullets(result.Bullets)
	}
	p.PrintActionPlan(result.ActionPlan)
}

func writeResult(stdout io.Writer, outPath string, result *types.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
