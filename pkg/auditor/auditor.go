// Package auditor provides the high-level API for running data-quality
// audits over a set of relational table extracts.
//
// # Quick Start
//
//	src := source.NewCSVSource("./data")
//	cfg, err := config.LoadFromFile("dq.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a := auditor.New(src, cfg)
//	result, err := a.Check(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary := result.Summary()
//	fmt.Println(summary.String())
package auditor

import (
	"context"
	"log/slog"

	"github.com/nsxbet/dq-audit/pkg/checker"
	_ "github.com/nsxbet/dq-audit/pkg/checks"
	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/hierarchy"
	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/types"
)

// Auditor runs the configured checks against a table source and aggregates
// their findings.
//
// Each call to Check rebuilds the findings from scratch; results from a
// previous run are never carried over.
type Auditor struct {
	cfg *config.Config
	src source.Source
}

// New creates an Auditor over the given table source and configuration.
func New(src source.Source, cfg *config.Config) *Auditor {
	if cfg == nil {
		cfg = config.DefaultConfig("default")
	}
	return &Auditor{cfg: cfg, src: src}
}

// WithConfig loads configuration from a YAML or JSON file, replacing the
// current configuration.
func (a *Auditor) WithConfig(filename string) error {
	cfg, err := config.LoadFromFile(filename)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// WithConfigObject sets a configuration object directly and returns the
// Auditor for chaining.
func (a *Auditor) WithConfigObject(cfg *config.Config) *Auditor {
	a.cfg = cfg
	return a
}

// stage pairs a loggable name with the warning type it runs under.
type stage struct {
	name        string
	warningType types.WarningType
	enabled     bool
}

// Check runs the configured checks in a fixed sequence, then reformats
// dimension identifiers with the hierarchy metadata. Stages with no
// configuration are silently skipped. A failing check is logged and the run
// continues; Check itself fails only when the context is cancelled, in which
// case the partial result is returned alongside the error.
func (a *Auditor) Check(ctx context.Context) (*Result, error) {
	slog.Info("starting data quality checks", "id", a.cfg.ID)

	stages := []stage{
		{"value range", types.WarningValRange, a.cfg.Checks.ValRange != nil},
		{"cross consistency", types.WarningCrossConsistency, a.cfg.Checks.CrossConsistency != nil},
		{"time consistency", types.WarningTimeCrossConsistency, a.cfg.Checks.TimeCrossConsistency != nil},
	}

	checkCtx := checker.Context{Source: a.src, Checks: a.cfg.Checks}

	var findings []*types.Finding
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		select {
		case <-ctx.Done():
			return newResult(findings), ctx.Err()
		default:
		}

		stageFindings, err := checker.Run(ctx, s.warningType, checkCtx)
		if err != nil {
			slog.Warn("check failed", "stage", s.name, "error", err)
			continue
		}
		findings = append(findings, stageFindings...)
		slog.Info("stage complete", "stage", s.name, "found", len(stageFindings))
	}

	if len(a.cfg.Hierarchy) > 0 {
		hierarchy.NewFormatter(a.src, a.cfg.Hierarchy).Format(ctx, findings)
	}

	slog.Info("data quality checks complete", "id", a.cfg.ID, "total", len(findings))
	return newResult(findings), nil
}
