// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/color"
)

var (
	// ErrMarshalAttribute is returned when record attributes cannot be rendered.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when the destination writer fails.
	ErrIoWrite = errors.New("error when writing to output")
)

// TimeFormat is the timestamp layout of every pretty log line.
const TimeFormat = "[15:04:05.000]"

// PrettyHandler writes `[time] LEVEL: message {attrs}` lines, attrs rendered as indented JSON.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
	writer io.Writer
	colour bool
}

var _ slog.Handler = (*PrettyHandler)(nil)

// Option configures a PrettyHandler.
type Option func(h *PrettyHandler)

// WithDestinationWriter sets where lines are written. Defaults to stderr.
func WithDestinationWriter(w io.Writer) Option {
	return func(h *PrettyHandler) {
		h.writer = w
	}
}

// WithColour forces colour output.
func WithColour() Option {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour uses colour when the color package detected a capable terminal.
func WithAutoColour() Option {
	return func(h *PrettyHandler) {
		h.colour = color.Enabled()
	}
}

// NewPrettyHandler returns a handler honouring Level and ReplaceAttr of handlerOptions.
func NewPrettyHandler(handlerOptions *slog.HandlerOptions, options ...Option) *PrettyHandler {
	h := &PrettyHandler{
		mu:     &sync.Mutex{},
		writer: os.Stderr,
	}

	if handlerOptions != nil {
		h.opts = *handlerOptions
	}

	for _, opt := range options {
		opt(h)
	}

	return h
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(clone.attrs[:len(clone.attrs):len(clone.attrs)], h.qualify(attrs)...)

	return &clone
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.groups = append(clone.groups[:len(clone.groups):len(clone.groups)], name)

	return &clone
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	out := strings.Builder{}

	if !r.Time.IsZero() {
		out.WriteString(h.paint(r.Time.Format(TimeFormat), color.FgWhite))
		out.WriteString(" ")
	}

	out.WriteString(h.paint(r.Level.String()+":", levelColour(r.Level)))
	out.WriteString(" ")
	out.WriteString(h.paint(r.Message, color.FgHiWhite))

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	var recordAttrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})

	attrs = append(attrs, h.qualify(recordAttrs)...)

	if len(attrs) > 0 {
		rendered, err := h.renderAttrs(attrs)
		if err != nil {
			return err
		}

		out.WriteString(" ")
		out.Write(rendered)
	}

	out.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := io.WriteString(h.writer, out.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

// qualify nests attrs under the handler's open groups.
func (h *PrettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 || len(attrs) == 0 {
		return attrs
	}

	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}

	nested := slog.Group(h.groups[len(h.groups)-1], args...)
	for i := len(h.groups) - 2; i >= 0; i-- {
		nested = slog.Group(h.groups[i], nested)
	}

	return []slog.Attr{nested}
}

func (h *PrettyHandler) renderAttrs(attrs []slog.Attr) ([]byte, error) {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		h.addAttr(m, nil, a)
	}

	if len(m) == 0 {
		return nil, nil
	}

	// colorjson only understands the types produced by encoding/json, so round-trip first.
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Join(ErrMarshalAttribute, err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, errors.Join(ErrMarshalAttribute, err)
	}

	b, err := color.JSONFormatter(h.colour).Marshal(generic)
	if err != nil {
		return nil, errors.Join(ErrMarshalAttribute, err)
	}

	return b, nil
}

func (h *PrettyHandler) addAttr(m map[string]any, groups []string, a slog.Attr) {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(groups, a)
	}

	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := make(map[string]any)
		for _, ga := range a.Value.Group() {
			h.addAttr(sub, append(groups, a.Key), ga)
		}

		if a.Key == "" {
			for k, v := range sub {
				m[k] = v
			}

			return
		}

		if len(sub) == 0 {
			return
		}

		if existing, ok := m[a.Key].(map[string]any); ok {
			mergeMaps(existing, sub)
			return
		}

		m[a.Key] = sub

		return
	}

	m[a.Key] = attrValue(a.Value)
}

// mergeMaps copies src into dst, descending into groups present in both.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}

		if existing, ok := dst[k].(map[string]any); ok {
			mergeMaps(existing, sub)
			continue
		}

		dst[k] = sub
	}
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		case []byte:
			return string(x)
		default:
			return x
		}
	default:
		return v.Any()
	}
}

func (h *PrettyHandler) paint(s string, c color.Code) string {
	if !h.colour {
		return s
	}

	return color.ControlString(c) + s + color.ControlString(color.Reset)
}

func levelColour(l slog.Level) color.Code {
	switch {
	case l <= slog.LevelDebug:
		return color.FgWhite
	case l <= slog.LevelInfo:
		return color.FgCyan
	case l < slog.LevelError:
		return color.FgYellow
	case l == slog.LevelError:
		return color.FgRed
	default:
		return color.FgHiMagenta
	}
}
