package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/dq-audit/pkg/auditor"
	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/logger"
	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <rules-file>",
	Short: "Run data-quality checks against the configured tables",
	Long: `Run the data-quality checks described in a rules file against the
configured table source.

The rules file selects the source (a directory of CSV extracts or a MySQL
database), the tables and thresholds for each check, and the hierarchy
tables used to reformat dimension identifiers in the output.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Flags for check command
	checkCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	checkCmd.Flags().String("fail-on", "", "exit with non-zero code at or above this severity (LOW, MEDIUM, HIGH, CRITICAL)")

	// Bind flags to viper
	_ = viper.BindPFlag("output", checkCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("fail-on", checkCmd.Flags().Lookup("fail-on"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelWarn
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(logger.NewWithLevel(logLevel).GetSlogLogger())

	rulesFile := args[0]
	slog.Debug("loading rules file", "file", rulesFile)
	cfg, err := config.LoadFromFile(rulesFile)
	if err != nil {
		return err
	}

	src, closeSrc, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	result, err := auditor.New(src, cfg).Check(context.Background())
	if err != nil {
		return err
	}

	outputFormat := viper.GetString("output")
	if err := outputResult(result, outputFormat); err != nil {
		return err
	}

	failOn := viper.GetString("fail-on")
	if failOn != "" {
		threshold, err := parseSeverity(failOn)
		if err != nil {
			return err
		}
		summary := result.Summary()
		if summary.HasIssues() && severityRank(summary.Severity) >= severityRank(threshold) {
			os.Exit(1)
		}
	}
	return nil
}

// buildSource creates the table access adapter selected by the config. The
// returned func releases any underlying connection.
func buildSource(cfg *config.Config) (source.Source, func(), error) {
	switch cfg.Source.Type {
	case "csv":
		return source.NewCSVSource(cfg.Source.Path), func() {}, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.Source.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open mysql connection")
		}
		return source.NewSQLSource(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unsupported source type: %q", cfg.Source.Type)
	}
}

func parseSeverity(s string) (types.Severity, error) {
	switch strings.ToUpper(s) {
	case "LOW":
		return types.SeverityLow, nil
	case "MEDIUM":
		return types.SeverityMedium, nil
	case "HIGH":
		return types.SeverityHigh, nil
	case "CRITICAL":
		return types.SeverityCritical, nil
	default:
		return "", errors.Errorf("unknown severity: %s", s)
	}
}

func severityRank(s types.Severity) int {
	switch s {
	case types.SeverityLow:
		return 1
	case types.SeverityMedium:
		return 2
	case types.SeverityHigh:
		return 3
	case types.SeverityCritical:
		return 4
	default:
		return 0
	}
}

func outputResult(result *auditor.Result, format string) error {
	switch format {
	case "json":
		return outputJSON(result)
	case "yaml":
		return outputYAML(result)
	case "text":
		return outputText(result)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(result *auditor.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"findings": result.Findings,
		"summary":  result.Summary(),
	})
}

func outputYAML(result *auditor.Result) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(map[string]interface{}{
		"findings": result.Findings,
		"summary":  result.Summary(),
	})
}

func outputText(result *auditor.Result) error {
	summary := result.Summary()
	if !summary.HasIssues() {
		fmt.Println(summary.Message)
		return nil
	}

	out := result.Table()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(out.Columns()))
	for _, c := range out.Columns() {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for i := 0; i < out.NumRows(); i++ {
		row := make(table.Row, 0, len(header))
		for _, v := range out.Row(i) {
			if v == nil {
				row = append(row, "")
			} else {
				row = append(row, v)
			}
		}
		t.AppendRow(row)
	}
	t.Render()

	fmt.Printf("\nSummary: %d finding(s), severity %s\n", summary.TotalIssues, summary.Severity)
	for wt, n := range summary.ByType {
		fmt.Printf("  %s: %d\n", wt, n)
	}
	return nil
}
