package agent

import (
	"context"
	"fmt"

	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/tts"
)

// run is the state of one pipeline execution.
type run struct {
	name      string
	voice     string
	audioPath string
	res       domain.Result
}

// step is one stage of a pipeline. It records its output on r.res.
type step func(ctx context.Context, r *run) error

// execute checks configuration, spools audio (when given), then runs steps
// in order until one fails. Partial results stay on the envelope. Panics are
// converted into a failed envelope; the spooled file is removed on every
// path.
func (s *Service) execute(ctx context.Context, r *run, audio *Audio, checks []func() error, steps ...step) (res domain.Result) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("pipeline panicked", "pipeline", r.name, "session_id", r.res.SessionID, "panic", p)
			res = r.res
			res.Success = false
			res.Error = fmt.Sprintf("internal error: %v", p)
		}
	}()

	for _, check := range checks {
		if err := check(); err != nil {
			return s.fail(r, err)
		}
	}

	if audio != nil {
		path, release, err := s.spool(*audio)
		if err != nil {
			return s.fail(r, err)
		}
		defer release()
		r.audioPath = path
	}

	for _, st := range steps {
		if err := st(ctx, r); err != nil {
			return s.fail(r, err)
		}
	}
	r.res.Success = true
	return r.res
}

func (s *Service) fail(r *run, err error) domain.Result {
	stage, _ := domain.StageOf(err)
	s.logger.Warn("pipeline failed",
		"pipeline", r.name,
		"stage", stage,
		"session_id", r.res.SessionID,
		"err", err,
	)
	r.res.Success = false
	r.res.Error = err.Error()
	return r.res
}

func (s *Service) transcribe(ctx context.Context, r *run) error {
	text, err := s.stt.Transcribe(ctx, r.audioPath)
	if err != nil {
		return err
	}
	r.res.Transcription = text
	return nil
}

func (s *Service) answer(ctx context.Context, r *run) error {
	text, err := s.chat.AskAbout(ctx, r.res.Transcription)
	if err != nil {
		return err
	}
	r.res.LLMResponse = text
	return nil
}

func (s *Service) reply(ctx context.Context, r *run) error {
	text, err := s.chat.Reply(ctx, r.res.SessionID, r.res.Transcription)
	r.res.LLMResponse = text
	return err
}

func fromTranscription(r *run) string { return r.res.Transcription }

func fromResponse(r *run) string { return r.res.LLMResponse }

// speak synthesizes the text selected by source and sets the status message.
func (s *Service) speak(source func(*run) string, message func(*run, tts.Speech) string) step {
	return func(ctx context.Context, r *run) error {
		sp, err := s.tts.Synthesize(ctx, source(r), r.voice)
		if err != nil {
			return err
		}
		r.res.AudioURL = sp.AudioURL
		r.res.Message = message(r, sp)
		return nil
	}
}
