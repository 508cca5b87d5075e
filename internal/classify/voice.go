package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendly/internal/ai"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

// Transcriber is the speech-to-text side of the model API.
type Transcriber interface {
	Transcribe(ctx context.Context, req ai.TranscriptionRequest) (ai.Transcription, error)
}

var (
	// ErrNoAudio is a caller error: nothing to transcribe.
	ErrNoAudio = errors.New("no audio provided")
	// ErrTranscriptionFailed tags every TranscriptionError.
	ErrTranscriptionFailed = errors.New("could not transcribe audio")
)

// TranscriptionError is returned when the speech-to-text call fails, so
// callers can tell it apart from a weak classification.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTranscriptionFailed, e.Err)
}

func (e *TranscriptionError) Unwrap() []error {
	return []error{ErrTranscriptionFailed, e.Err}
}

// Voice transcribes recorded audio and hands the transcript to the Gateway.
type Voice struct {
	stt      Transcriber
	gateway  *Gateway
	language string
}

// NewVoice builds the adapter. language is the hint sent with every
// recording, typically the app's primary locale.
func NewVoice(stt Transcriber, gateway *Gateway, language string) *Voice {
	if language == "" {
		language = "es"
	}
	return &Voice{stt: stt, gateway: gateway, language: language}
}

// TranscribeAndClassify returns the transcript and its classification.
// Only transcription failures are errors; classification degrades to
// confidence 0.
func (v *Voice) TranscribeAndClassify(ctx context.Context, audio []byte, mimeType string, cats []core.Category, accts []core.Account, owners []core.Owner) (core.VoiceResult, error) {
	transcript, err := v.transcribe(ctx, core.RequestClassifyVoice, audio, mimeType)
	if err != nil {
		return core.VoiceResult{}, err
	}

	return core.VoiceResult{
		Transcript:     transcript,
		Classification: v.gateway.classify(ctx, core.RequestClassifyVoice, transcript, cats, accts, owners),
	}, nil
}

// Transcribe returns the text of the recording without classifying it.
func (v *Voice) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return v.transcribe(ctx, core.RequestTranscribe, audio, mimeType)
}

func (v *Voice) transcribe(ctx context.Context, reqType core.AIRequestType, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	tr, err := v.stt.Transcribe(ctx, ai.TranscriptionRequest{
		Audio:    audio,
		MimeType: mimeType,
		Language: v.language,
	})
	if err != nil {
		slog.WarnContext(ctx, "Transcription request failed", modelCall(applog.OpTranscribe, reqType, "").WithError(err).ToSlice()...)
		return "", &TranscriptionError{Err: err}
	}

	v.gateway.record(ctx, core.AIUsage{
		RequestType:  reqType,
		Model:        tr.Model,
		AudioSeconds: tr.DurationSeconds,
	})
	return tr.Text, nil
}
