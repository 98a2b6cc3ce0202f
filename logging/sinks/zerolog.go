package sinks

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/duxbuse/waryes-sub005/logging"
)

// ZerologSink forwards events to a zerolog logger for leveled structured
// output alongside ops tooling that already speaks zerolog.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(w io.Writer) *ZerologSink {
	return &ZerologSink{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func (s *ZerologSink) Write(event logging.Event) error {
	entry := s.logger.WithLevel(zerologLevel(event.Severity)).
		Str("type", string(event.Type)).
		Uint64("tick", event.Tick).
		Str("category", event.Category)
	if event.Actor.ID != "" {
		entry = entry.Str("actor", event.Actor.ID).Str("actorKind", string(event.Actor.Kind))
	}
	if len(event.Targets) > 0 {
		ids := make([]string, len(event.Targets))
		for i, t := range event.Targets {
			ids[i] = t.ID
		}
		entry = entry.Strs("targets", ids)
	}
	if event.Payload != nil {
		entry = entry.Interface("payload", event.Payload)
	}
	for k, v := range event.Extra {
		entry = entry.Interface(k, v)
	}
	entry.Send()
	return nil
}

func (s *ZerologSink) Close(context.Context) error { return nil }

func zerologLevel(severity logging.Severity) zerolog.Level {
	switch severity {
	case logging.SeverityDebug:
		return zerolog.DebugLevel
	case logging.SeverityWarn:
		return zerolog.WarnLevel
	case logging.SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
