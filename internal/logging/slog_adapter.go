// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns an *slog.Logger whose records are written through
// the global zerolog logger. The supervision tree's event hook speaks slog,
// and routing it through here keeps every log line in one stream with one
// format.
func NewSlogLogger() *slog.Logger {
	return slog.New(&slogBridge{zl: Logger()})
}

// slogBridge implements slog.Handler on top of a zerolog.Logger.
type slogBridge struct {
	zl     zerolog.Logger
	attrs  []slog.Attr
	groups []string
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return b.zl.GetLevel() <= bridgeLevel(level)
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (b *slogBridge) Handle(_ context.Context, rec slog.Record) error {
	ev := b.zl.WithLevel(bridgeLevel(rec.Level))

	for i := range b.attrs {
		ev = b.appendAttr(ev, b.attrs[i], b.groups)
	}
	rec.Attrs(func(a slog.Attr) bool {
		ev = b.appendAttr(ev, a, b.groups)
		return true
	})

	ev.Msg(rec.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *b
	clone.attrs = append(append([]slog.Attr(nil), b.attrs...), attrs...)
	return &clone
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	clone := *b
	clone.groups = append(append([]string(nil), b.groups...), name)
	return &clone
}

// appendAttr writes one slog attribute onto the event, prefixing the key
// with any open group names. Nested groups recurse.
func (b *slogBridge) appendAttr(ev *zerolog.Event, a slog.Attr, groups []string) *zerolog.Event {
	key := a.Key
	for _, g := range groups {
		key = g + "." + key
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		for _, member := range v.Group() {
			ev = b.appendAttr(ev, member, append(groups, a.Key))
		}
		return ev
	case slog.KindString:
		return ev.Str(key, v.String())
	case slog.KindBool:
		return ev.Bool(key, v.Bool())
	case slog.KindInt64:
		return ev.Int64(key, v.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, v.Float64())
	case slog.KindDuration:
		return ev.Dur(key, v.Duration())
	case slog.KindTime:
		return ev.Time(key, v.Time())
	default:
		return ev.Interface(key, v.Any())
	}
}

// bridgeLevel maps an slog level onto the nearest zerolog level. slog levels
// are open-ended integers, so the mapping works on ranges rather than exact
// values.
func bridgeLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	case l >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
