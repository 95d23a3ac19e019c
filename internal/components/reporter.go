package components

import (
	"fmt"
	"log/slog"

	"github.com/lguibr/switchboard"
	"github.com/lguibr/switchboard/internal/scan"
)

// Report is everything the Reporter gathered during one run.
type Report struct {
	Dependencies map[string]uint64 `json:"dependencies" yaml:"dependencies"`
	Languages    []scan.Language   `json:"languages" yaml:"languages"`
	Samples      []scan.Sample     `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Reporter is the main component of a report run. On the dependency
// announcement it asks the code service for an analysis of CodeRoot. It
// looks the writing service up through the Environment and, when WritingDir
// is set, asks it for samples. Once every answer is in it ends the run with
// ErrReportComplete.
type Reporter struct {
	CodeRoot   string
	WritingDir string

	logger *slog.Logger
	report Report
	// pending holds the reply identifiers still expected.
	pending map[string]bool
}

var _ switchboard.Component = (*Reporter)(nil)

func NewReporter(codeRoot, writingDir string, logger *slog.Logger) *Reporter {
	return &Reporter{
		CodeRoot:   codeRoot,
		WritingDir: writingDir,
		logger:     logger.With(slog.String("component", "reporter")),
		pending:    make(map[string]bool),
	}
}

// Report returns what has been gathered so far.
func (r *Reporter) Report() Report {
	return r.report
}

// Done reports whether every requested result has arrived.
func (r *Reporter) Done() bool {
	return len(r.pending) == 0 && r.report.Dependencies != nil
}

func (r *Reporter) Init() switchboard.Init {
	return switchboard.InitNone()
}

func (r *Reporter) Update(msg switchboard.Message) switchboard.Update {
	switch msg.Identifier {
	case switchboard.IdentDependencies:
		return r.onDependencies(msg)
	case switchboard.IdentDependencyLookup:
		return r.onLookup(msg)
	case IdentCodeAnalysis:
		if !r.expects(msg) {
			return switchboard.NoMessages()
		}
		var res CodeAnalysis
		if err := msg.Decode(&res); err != nil {
			return switchboard.Fail(fmt.Errorf("reporter: %w", err))
		}
		r.report.Languages = res.Languages
		r.logger.Info("code analysis received", slog.Int("languages", len(res.Languages)))
		return r.received(msg.Identifier)
	case IdentWritingSamples:
		if !r.expects(msg) {
			return switchboard.NoMessages()
		}
		var res WritingSamples
		if err := msg.Decode(&res); err != nil {
			return switchboard.Fail(fmt.Errorf("reporter: %w", err))
		}
		r.report.Samples = res.Samples
		r.logger.Info("writing samples received", slog.Int("samples", len(res.Samples)))
		return r.received(msg.Identifier)
	}
	return switchboard.NoMessages()
}

func (r *Reporter) onDependencies(msg switchboard.Message) switchboard.Update {
	var deps switchboard.Dependencies
	if err := msg.Decode(&deps); err != nil {
		return switchboard.Fail(fmt.Errorf("reporter: %w", err))
	}
	r.report.Dependencies = make(map[string]uint64, len(deps))
	for id, pid := range deps {
		r.report.Dependencies[string(id)] = uint64(pid)
	}

	code, ok := deps[CodeServiceID]
	if !ok {
		return switchboard.Fail(fmt.Errorf("%w: %s", ErrMissingDependency, CodeServiceID))
	}
	out := []switchboard.Message{
		switchboard.MustMessage(code, IdentScanCode, ScanCodeRequest{Root: r.CodeRoot}),
	}
	r.pending[IdentCodeAnalysis] = true

	if r.WritingDir != "" {
		out = append(out, switchboard.MustMessage(switchboard.PidEnvironment,
			switchboard.IdentRequestDependency, switchboard.RequestDependency{ID: WritingServiceID}))
		r.pending[IdentWritingSamples] = true
	}
	return switchboard.Messages(out...)
}

func (r *Reporter) onLookup(msg switchboard.Message) switchboard.Update {
	var lookup switchboard.DependencyLookup
	if err := msg.Decode(&lookup); err != nil {
		return switchboard.Fail(fmt.Errorf("reporter: %w", err))
	}
	if lookup.ID != WritingServiceID {
		return switchboard.NoMessages()
	}
	if lookup.Pid == nil {
		return switchboard.Fail(fmt.Errorf("%w: %s", ErrMissingDependency, lookup.ID))
	}
	return switchboard.Messages(switchboard.MustMessage(*lookup.Pid, IdentCollectSamples,
		CollectSamplesRequest{Dir: r.WritingDir}))
}

// expects reports whether msg answers a request still outstanding.
func (r *Reporter) expects(msg switchboard.Message) bool {
	if r.pending[msg.Identifier] {
		return true
	}
	r.logger.Warn("ignoring unrequested result",
		slog.String("identifier", msg.Identifier),
		slog.String("sender", msg.Sender.String()),
	)
	return false
}

func (r *Reporter) received(identifier string) switchboard.Update {
	delete(r.pending, identifier)
	if len(r.pending) > 0 {
		return switchboard.NoMessages()
	}
	return switchboard.Fail(ErrReportComplete)
}
