package domain

import (
	"errors"
	"fmt"
)

// Empty-result failures. The text is part of the public envelope contract.
var (
	ErrEmptyTranscription = errors.New("Empty transcription")
	ErrEmptyResponse      = errors.New("Empty LLM response")
	ErrNoAudioURL         = errors.New("No audio URL returned")
)

// Stage identifies the pipeline step that produced a failure.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
	StageSynthesis     Stage = "synthesis"
	StageSession       Stage = "session"
)

func (s Stage) label() string {
	switch s {
	case StageTranscription:
		return "Transcription"
	case StageGeneration:
		return "LLM"
	case StageSynthesis:
		return "TTS"
	case StageSession:
		return "Session store"
	default:
		return string(s)
	}
}

// StageError tags a collaborator failure with the stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage.label(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ConfigError reports a collaborator whose credential is missing.
type ConfigError struct {
	Credential string
}

func (e *ConfigError) Error() string {
	return e.Credential + " not configured"
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
