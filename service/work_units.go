package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/adapter"
	"github.com/ludo-technologies/sanity/internal/config"
	"github.com/ludo-technologies/sanity/internal/executor"
	"github.com/ludo-technologies/sanity/internal/history"
	"github.com/ludo-technologies/sanity/internal/inventory"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/internal/rules"
)

// outputTail bounds how much tool output is echoed into the debug log.
const outputTail = 4096

// RunState is shared by the work units of one run. Each unit fills in the
// fields later units read.
type RunState struct {
	Request   *domain.AnalyzeRequest
	StartedAt time.Time
	RunDate   time.Time

	Rules     *rules.Table
	Inventory *inventory.Inventory
	Stats     *ExtractStats
	ToolRuns  []domain.ToolRun

	Summaries []domain.PackageSummary
	History   []domain.PackageSummary
	Report    *domain.RunReport
}

// NewRunState prepares the state for req, stamping the run date.
func NewRunState(req *domain.AnalyzeRequest) *RunState {
	now := time.Now()
	runDate := req.RunDate
	if runDate.IsZero() {
		runDate = now
	}
	return &RunState{
		Request:   req,
		StartedAt: now,
		RunDate:   runDate.Truncate(time.Minute),
	}
}

// Close releases the caches held by the run.
func (s *RunState) Close() {
	if s.Rules != nil {
		s.Rules.Close()
	}
	if s.Inventory != nil {
		s.Inventory.Close()
	}
}

// LoadRulesUnit loads the rule table.
type LoadRulesUnit struct {
	State *RunState
	Log   *logging.Logger
}

func (u *LoadRulesUnit) Name() string { return "load rules" }

func (u *LoadRulesUnit) Run(_ context.Context) error {
	table, err := rules.Load(u.State.Request.RulesFile, u.Log)
	if err != nil {
		return err
	}
	u.State.Rules = table
	if u.State.Request.RulesFile != "" {
		u.Log.Debugf("loaded %d rules from %s", table.Len(), u.State.Request.RulesFile)
	}
	return nil
}

// CollectSourcesUnit builds the source inventory and the run aggregate.
// A run without sources cannot map any finding and fails.
type CollectSourcesUnit struct {
	State   *RunState
	Counter *LineCounter
	Log     *logging.Logger
}

func (u *CollectSourcesUnit) Name() string { return "collect sources" }

func (u *CollectSourcesUnit) Run(_ context.Context) error {
	req := u.State.Request
	inv, err := inventory.Collect(inventory.Options{
		Roots:            req.Paths,
		Extensions:       req.Extensions,
		IncludePatterns:  req.IncludePatterns,
		ExcludePatterns:  req.ExcludePatterns,
		RespectGitignore: req.RespectGitignore,
		Logger:           u.Log,
	})
	if err != nil {
		return domain.NewInvalidInputError("cannot collect sources", err)
	}
	if inv.Len() == 0 {
		inv.Close()
		return domain.NewMissingMandatoryInputError(
			fmt.Sprintf("no source files found in %s", strings.Join(req.Paths, ", ")))
	}
	u.Log.Infof("collected %d source files in %d packages", inv.Len(), len(inv.Packages()))

	u.State.Inventory = inv
	u.State.Stats = NewExtractStats(inv, u.State.Rules, u.Counter, u.Log)
	return nil
}

// ToolUnit runs one external tool, if it has a command, and loads its
// results.
type ToolUnit struct {
	State    *RunState
	Tool     domain.ToolRequest
	Executor *executor.Executor
	Log      *logging.Logger
}

func (u *ToolUnit) Name() string {
	if u.Tool.Name != "" {
		return u.Tool.Name
	}
	return strings.ToLower(string(u.Tool.Source))
}

func (u *ToolUnit) Run(ctx context.Context) error {
	run := domain.ToolRun{
		Name:       u.Name(),
		Source:     u.Tool.Source,
		ResultFile: u.resultPath(),
	}

	if u.Tool.Command != "" {
		code, err := u.execute(ctx)
		if err != nil {
			return err
		}
		run.Executed = true
		run.ExitCode = code
	}

	a, err := adapter.ForSource(u.Tool.Source, adapter.Options{SpuriousPatterns: u.Tool.SpuriousPatterns})
	if err != nil {
		return err
	}

	target := u.State.Stats.Target()
	before := target.Diagnostics.Size()
	err = adapter.LoadFile(a, run.ResultFile, target)
	switch {
	case err == nil:
		run.ResultFound = true
	case domain.IsCode(err, domain.ErrCodeFileNotFound) && !u.Tool.Mandatory:
		u.Log.Warnf("no results from %s: %s does not exist", u.Name(), run.ResultFile)
	case domain.IsCode(err, domain.ErrCodeFileNotFound):
		return domain.NewMissingMandatoryInputError(
			fmt.Sprintf("results of mandatory tool %s not found at %s", u.Name(), run.ResultFile))
	default:
		return err
	}
	run.Diagnostics = target.Diagnostics.Size() - before

	u.State.ToolRuns = append(u.State.ToolRuns, run)
	return nil
}

func (u *ToolUnit) execute(ctx context.Context) (int, error) {
	var stdout, stderr bytes.Buffer
	code, err := u.Executor.Run(ctx, u.Tool.Command, &stdout, &stderr)
	if err != nil {
		return code, err
	}
	if code != 0 {
		// Most analyzers exit non-zero when they report findings.
		u.Log.Infof("%s exited with code %d", u.Name(), code)
		u.Log.Debugf("%s stderr:\n%s", u.Name(), tail(stderr.Bytes(), outputTail))
	}
	u.Log.Debugf("%s stdout:\n%s", u.Name(), tail(stdout.Bytes(), outputTail))
	return code, nil
}

// resultPath resolves a relative result file against the tool's working
// directory.
func (u *ToolUnit) resultPath() string {
	path := u.Tool.ResultFile
	if path == "" || filepath.IsAbs(path) || u.Tool.WorkDir == "" {
		return path
	}
	return filepath.Join(u.Tool.WorkDir, path)
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}

// ComputeStatsUnit counts the source lines.
type ComputeStatsUnit struct {
	State *RunState
}

func (u *ComputeStatsUnit) Name() string { return "compute stats" }

func (u *ComputeStatsUnit) Run(ctx context.Context) error {
	return u.State.Stats.ComputeStats(ctx)
}

// SummarizeUnit snapshots the run and, with history enabled, appends it to
// the ledger and merges it with the earlier runs.
type SummarizeUnit struct {
	State *RunState
	Log   *logging.Logger
}

func (u *SummarizeUnit) Name() string { return "summarize" }

func (u *SummarizeUnit) Run(_ context.Context) error {
	u.State.Summaries = u.State.Stats.RunSummary(u.State.RunDate)

	req := u.State.Request
	if !req.HistoryEnabled || req.HistoryFile == "" {
		return nil
	}

	store := history.NewStore(req.HistoryFile, u.Log)
	previous, err := store.Read()
	if err != nil {
		return err
	}
	if err := store.Write(u.State.Summaries); err != nil {
		return err
	}
	u.State.History = history.Merge(previous, u.State.Summaries)
	u.Log.Debugf("history %s holds %d rows", req.HistoryFile, len(u.State.History))
	return nil
}

// ReportUnit builds the run report and hands it to the report writer when
// the request names an output.
type ReportUnit struct {
	State  *RunState
	Writer *ReportWriter
}

func (u *ReportUnit) Name() string { return "report" }

func (u *ReportUnit) Run(_ context.Context) error {
	report := BuildReport(u.State)
	u.State.Report = report

	req := u.State.Request
	if req.OutputWriter == nil && req.OutputPath == "" {
		return nil
	}
	return u.Writer.WriteTo(report, req.OutputFormat, req.OutputWriter, req.OutputPath)
}

// NewAnalysisPipeline wires the units of a full run in order.
func NewAnalysisPipeline(state *RunState, pm domain.ProgressManager, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	req := state.Request

	perf := &config.PerformanceConfig{MaxGoroutines: req.MaxGoroutines}
	counter := NewLineCounterWithProgress(perf, pm)

	p := NewPipeline(pm, log)
	p.Add(
		&LoadRulesUnit{State: state, Log: log},
		&CollectSourcesUnit{State: state, Counter: counter, Log: log},
	)
	for _, tool := range req.Tools {
		runner := executor.New(executor.Options{
			Dir:           tool.WorkDir,
			Timeout:       req.ToolTimeout,
			GracePolls:    req.GracePolls,
			GraceInterval: req.GraceInterval,
			Logger:        log,
		})
		p.Add(&ToolUnit{State: state, Tool: tool, Executor: runner, Log: log})
	}
	p.Add(
		&ComputeStatsUnit{State: state},
		&SummarizeUnit{State: state, Log: log},
		&ReportUnit{State: state, Writer: NewReportWriter()},
	)
	return p
}
