package app

import (
	"io"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/history"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/service"
)

// HistoryRequest selects one package series of the trend ledger
type HistoryRequest struct {
	File string

	// Package is the fully qualified package name; empty selects the root
	// rollup.
	Package string

	OutputFormat domain.OutputFormat
	OutputWriter io.Writer
}

// HistoryUseCase reads the trend ledger
type HistoryUseCase struct {
	writer *service.ReportWriter
	log    *logging.Logger
}

// NewHistoryUseCase creates a new history use case
func NewHistoryUseCase(log *logging.Logger) *HistoryUseCase {
	if log == nil {
		log = logging.Discard()
	}
	return &HistoryUseCase{
		writer: service.NewReportWriter(),
		log:    log,
	}
}

// Execute returns the series of req.Package in ledger order and writes
// it when an output writer is set. A missing ledger is an empty history.
func (uc *HistoryUseCase) Execute(req HistoryRequest) ([]domain.PackageSummary, error) {
	rows, err := uc.read(req.File)
	if err != nil {
		return nil, err
	}

	series := history.ForPackage(rows, req.Package)
	if req.OutputWriter != nil {
		if err := uc.writer.WriteHistory(req.Package, series, req.OutputFormat, req.OutputWriter); err != nil {
			return series, err
		}
	}
	return series, nil
}

// Packages lists the packages recorded in the ledger, root excluded
func (uc *HistoryUseCase) Packages(file string) ([]string, error) {
	rows, err := uc.read(file)
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, pkg := range history.Packages(rows) {
		if pkg != domain.RootPackage {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func (uc *HistoryUseCase) read(file string) ([]domain.PackageSummary, error) {
	if file == "" {
		return nil, domain.NewInvalidInputError("no history file configured", nil)
	}
	return history.NewStore(file, uc.log).Read()
}
