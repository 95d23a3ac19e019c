package components

import (
	"errors"
	"log/slog"

	"github.com/lguibr/switchboard"
	"github.com/lguibr/switchboard/internal/scan"
)

// ReportOptions configures RunReport.
type ReportOptions struct {
	CodeRoot   string
	WritingDir string
	Workers    int
}

// RunReport wires a Reporter to a code and a writing service reading from
// src and runs the Environment until the report is complete.
func RunReport(src scan.Source, ro ReportOptions, logger *slog.Logger, opts ...switchboard.Option) (Report, error) {
	code := NewCodeService(src, ro.Workers, logger)
	defer code.Close()
	writing := NewWritingService(src, logger)
	defer writing.Close()

	env, err := switchboard.NewBuilder(NewReporter(ro.CodeRoot, ro.WritingDir, logger)).
		Dep(CodeServiceID, code).
		Dep(WritingServiceID, writing).
		Build(append([]switchboard.Option{switchboard.WithLogger(logger)}, opts...)...)
	if err != nil {
		return Report{}, err
	}

	reporter, err := env.Start()
	if errors.Is(err, ErrReportComplete) {
		return reporter.Report(), nil
	}
	return reporter.Report(), err
}
