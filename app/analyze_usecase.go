package app

import (
	"context"
	"fmt"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/service"
)

// AnalyzeUseCase orchestrates one aggregation run: tools, adapters,
// aggregation, trend store and report.
type AnalyzeUseCase struct {
	loader     *service.ConfigurationLoaderImpl
	progress   domain.ProgressManager
	fileHelper *FileHelper
	log        *logging.Logger
}

// NewAnalyzeUseCase creates a new analyze use case
func NewAnalyzeUseCase(progress domain.ProgressManager, log *logging.Logger) *AnalyzeUseCase {
	uc, _ := NewAnalyzeUseCaseBuilder().
		WithProgressManager(progress).
		WithLogger(log).
		Build()
	return uc
}

// Execute validates req, runs the analysis pipeline and returns the report.
// The report is written to req.OutputWriter or req.OutputPath when one is
// set.
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req *domain.AnalyzeRequest) (*domain.RunReport, error) {
	state, err := uc.run(ctx, req)
	if err != nil {
		return nil, err
	}
	defer state.Close()
	return state.Report, nil
}

func (uc *AnalyzeUseCase) run(ctx context.Context, req *domain.AnalyzeRequest) (*service.RunState, error) {
	if req == nil {
		return nil, domain.NewInvalidInputError("no analyze request", nil)
	}
	if err := uc.loader.ValidateConfig(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	paths, err := uc.fileHelper.ResolvePaths(req.Paths)
	if err != nil {
		return nil, err
	}
	resolved := *req
	resolved.Paths = paths
	uc.log.Infof("analyzing %s with %d tools", describePaths(paths), len(req.Tools))

	state := service.NewRunState(&resolved)
	if err := service.NewAnalysisPipeline(state, uc.progress, uc.log).Run(ctx); err != nil {
		state.Close()
		return nil, err
	}
	return state, nil
}

// AnalyzeUseCaseBuilder builds an AnalyzeUseCase
type AnalyzeUseCaseBuilder struct {
	loader     *service.ConfigurationLoaderImpl
	progress   domain.ProgressManager
	fileHelper *FileHelper
	log        *logging.Logger
}

// NewAnalyzeUseCaseBuilder creates a new builder
func NewAnalyzeUseCaseBuilder() *AnalyzeUseCaseBuilder {
	return &AnalyzeUseCaseBuilder{}
}

// WithConfigurationLoader sets the loader used to validate requests
func (b *AnalyzeUseCaseBuilder) WithConfigurationLoader(loader *service.ConfigurationLoaderImpl) *AnalyzeUseCaseBuilder {
	b.loader = loader
	return b
}

// WithProgressManager sets the progress observer
func (b *AnalyzeUseCaseBuilder) WithProgressManager(pm domain.ProgressManager) *AnalyzeUseCaseBuilder {
	b.progress = pm
	return b
}

// WithFileHelper sets the file helper
func (b *AnalyzeUseCaseBuilder) WithFileHelper(fh *FileHelper) *AnalyzeUseCaseBuilder {
	b.fileHelper = fh
	return b
}

// WithLogger sets the logger
func (b *AnalyzeUseCaseBuilder) WithLogger(log *logging.Logger) *AnalyzeUseCaseBuilder {
	b.log = log
	return b
}

// Build creates the AnalyzeUseCase
func (b *AnalyzeUseCaseBuilder) Build() (*AnalyzeUseCase, error) {
	uc := &AnalyzeUseCase{
		loader:     b.loader,
		progress:   b.progress,
		fileHelper: b.fileHelper,
		log:        b.log,
	}

	if uc.loader == nil {
		uc.loader = service.NewConfigurationLoader()
	}
	if uc.progress == nil {
		uc.progress = &service.NoOpProgressManager{}
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	if uc.log == nil {
		uc.log = logging.Discard()
	}

	return uc, nil
}

func describePaths(paths []string) string {
	if len(paths) == 1 {
		return paths[0]
	}
	return fmt.Sprintf("%d paths", len(paths))
}
