package app

import (
	"context"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/service"
)

// CheckUseCase runs an analysis and evaluates the quality gate on its root
// rollup. The run report itself is not written; the check result is.
type CheckUseCase struct {
	analyze *AnalyzeUseCase
	writer  *service.ReportWriter
}

// NewCheckUseCase creates a check use case on top of analyze
func NewCheckUseCase(analyze *AnalyzeUseCase) *CheckUseCase {
	if analyze == nil {
		analyze = NewAnalyzeUseCase(nil, nil)
	}
	return &CheckUseCase{
		analyze: analyze,
		writer:  service.NewReportWriter(),
	}
}

// Execute runs the analysis of req and checks it against thresholds. The
// result is written to req.OutputWriter in req.OutputFormat when a writer is
// set.
func (uc *CheckUseCase) Execute(ctx context.Context, req *domain.AnalyzeRequest, thresholds domain.CheckRequest) (*domain.CheckResult, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("no analyze request", nil)
	}

	quiet := *req
	quiet.OutputWriter = nil
	quiet.OutputPath = ""

	state, err := uc.analyze.run(ctx, &quiet)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	result := service.NewQualityGate(thresholds).Evaluate(state.Report)

	if req.OutputWriter != nil {
		if err := uc.writer.WriteCheck(result, req.OutputFormat, req.OutputWriter); err != nil {
			return result, err
		}
	}
	return result, nil
}
