package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lguibr/switchboard"
	"github.com/lguibr/switchboard/internal/scan"
)

type request[Req any] struct {
	from switchboard.Pid
	body Req
}

// Service answers one request identifier with one reply identifier, doing
// the work in the background. Requests that arrive while a job runs are
// queued and served in order.
type Service[Req, Res any] struct {
	name     string
	request  string
	reply    string
	run      func(context.Context, Req) (Res, error)
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	current  *job[Res]
	serving  request[Req]
	pending  []request[Req]
	finished int
}

var _ switchboard.Component = (*Service[struct{}, struct{}])(nil)

func newService[Req, Res any](name, requestIdent, replyIdent string, logger *slog.Logger, run func(context.Context, Req) (Res, error)) *Service[Req, Res] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service[Req, Res]{
		name:    name,
		request: requestIdent,
		reply:   replyIdent,
		run:     run,
		logger:  logger.With(slog.String("service", name)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewCodeService scans code trees for IdentScanCode requests.
func NewCodeService(src scan.Source, workers int, logger *slog.Logger) *Service[ScanCodeRequest, CodeAnalysis] {
	return newService(CodeServiceID, IdentScanCode, IdentCodeAnalysis, logger,
		func(ctx context.Context, req ScanCodeRequest) (CodeAnalysis, error) {
			langs, err := scan.AnalyzeCode(ctx, src, req.Root, workers)
			if err != nil {
				return CodeAnalysis{}, err
			}
			return CodeAnalysis{Root: req.Root, Languages: langs}, nil
		})
}

// NewWritingService collects prose samples for IdentCollectSamples requests.
func NewWritingService(src scan.Source, logger *slog.Logger) *Service[CollectSamplesRequest, WritingSamples] {
	return newService(WritingServiceID, IdentCollectSamples, IdentWritingSamples, logger,
		func(_ context.Context, req CollectSamplesRequest) (WritingSamples, error) {
			samples, err := scan.CollectSamples(src, req.Dir)
			if err != nil {
				return WritingSamples{}, err
			}
			return WritingSamples{Dir: req.Dir, Samples: samples}, nil
		})
}

func (s *Service[Req, Res]) Init() switchboard.Init {
	return switchboard.InitNone()
}

func (s *Service[Req, Res]) Update(msg switchboard.Message) switchboard.Update {
	switch msg.Identifier {
	case s.request:
		var body Req
		if err := msg.Decode(&body); err != nil {
			s.logger.Warn("ignoring malformed request", slog.String("error", err.Error()))
			return switchboard.NoMessages()
		}
		s.pending = append(s.pending, request[Req]{from: msg.Sender, body: body})
		s.startNext()
		return switchboard.NoMessages()

	case switchboard.IdentAsyncCheck:
		if s.current == nil {
			return switchboard.NoMessages()
		}
		res, err, ok := s.current.poll()
		if !ok {
			return switchboard.NotReady()
		}
		to := s.serving.from
		s.current = nil
		if err != nil {
			return switchboard.Fail(fmt.Errorf("%s service: %w", s.name, err))
		}
		s.finished++
		s.logger.Debug("job finished", slog.String("to", to.String()))
		s.startNext()

		// The async-check came from the Environment, so the requester is
		// addressed explicitly rather than through PidSender.
		reply, err := switchboard.NewMessage(to, s.reply, res)
		if err != nil {
			return switchboard.Fail(err)
		}
		return switchboard.Messages(reply)
	}
	return switchboard.NoMessages()
}

func (s *Service[Req, Res]) startNext() {
	if s.current != nil || len(s.pending) == 0 {
		return
	}
	s.serving, s.pending = s.pending[0], s.pending[1:]
	body := s.serving.body
	s.current = startJob(s.ctx, func(ctx context.Context) (Res, error) {
		return s.run(ctx, body)
	})
	s.logger.Debug("job started", slog.String("from", s.serving.from.String()))
}

// Busy reports whether a job is running.
func (s *Service[Req, Res]) Busy() bool {
	return s.current != nil
}

// Finished returns how many jobs completed successfully.
func (s *Service[Req, Res]) Finished() int {
	return s.finished
}

// Close cancels the running job and waits for it.
func (s *Service[Req, Res]) Close() error {
	s.cancel()
	if s.current != nil {
		s.current.wait()
	}
	return nil
}
