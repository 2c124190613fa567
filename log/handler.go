// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

// TerminalStringer is an analogous interface to the stdlib stringer, allowing
// own formats to be applied to the terminal output of a type.
type TerminalStringer interface {
	TerminalString() string
}

type terminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Leveler
	useColor bool
	attrs    []slog.Attr
	buf      []byte
}

// newTerminalHandler returns a handler which formats log records at all levels
// optimized for human readability on a terminal with color-coded level output
// and terser human friendly timestamp.
//
//	[LEVEL] [TIME] MESSAGE key=value key=value ...
func newTerminalHandler(wr io.Writer, useColor bool) *terminalHandler {
	return &terminalHandler{
		wr:       wr,
		lvl:      LevelInfo,
		useColor: useColor,
	}
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.format(h.buf[:0], r)
	h.wr.Write(buf)
	h.buf = buf[:0]
	return nil
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	panic("not implemented")
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &terminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(h.attrs, attrs...),
	}
}

func (h *terminalHandler) format(buf []byte, r slog.Record) []byte {
	msg := escapeMessage(r.Message)
	var color = ""
	if h.useColor {
		switch r.Level {
		case LevelCrit:
			color = "\x1b[35m"
		case slog.LevelError:
			color = "\x1b[31m"
		case slog.LevelWarn:
			color = "\x1b[33m"
		case slog.LevelInfo:
			color = "\x1b[32m"
		case slog.LevelDebug:
			color = "\x1b[36m"
		case LevelTrace:
			color = "\x1b[34m"
		}
	}
	if buf == nil {
		buf = make([]byte, 0, 30+termMsgJust)
	}
	if color != "" {
		buf = append(buf, color...)
		buf = append(buf, levelString(r.Level)...)
		buf = append(buf, "\x1b[0m"...)
	} else {
		buf = append(buf, levelString(r.Level)...)
	}
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, termTimeFormat)
	buf = append(buf, "] "...)
	buf = append(buf, msg...)

	// try to justify the log output for short messages
	if (r.NumAttrs()+len(h.attrs)) > 0 && len(msg) < termMsgJust {
		for i := len(msg); i < termMsgJust; i++ {
			buf = append(buf, ' ')
		}
	}
	for _, attr := range h.attrs {
		buf = appendAttr(buf, attr, color)
	}
	r.Attrs(func(attr slog.Attr) bool {
		buf = appendAttr(buf, attr, color)
		return true
	})
	buf = append(buf, '\n')
	return buf
}

func appendAttr(buf []byte, attr slog.Attr, color string) []byte {
	buf = append(buf, ' ')
	if color != "" {
		buf = append(buf, color...)
		buf = append(buf, escapeString(attr.Key)...)
		buf = append(buf, "\x1b[0m="...)
	} else {
		buf = append(buf, escapeString(attr.Key)...)
		buf = append(buf, '=')
	}
	buf = append(buf, attrValue(attr.Value)...)
	return buf
}

func attrValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if ts, ok := v.Any().(TerminalStringer); ok {
			return escapeString(ts.TerminalString())
		}
		if err, ok := v.Any().(error); ok {
			return escapeString(err.Error())
		}
	}
	if v.Kind() == slog.KindTime {
		return v.Time().Format(time.RFC3339)
	}
	return escapeString(fmt.Sprintf("%v", v.Any()))
}

func levelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO "
	case slog.LevelWarn:
		return "WARN "
	case slog.LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT "
	default:
		return fmt.Sprintf("LVL%d ", l)
	}
}

func needsQuoting(text string) bool {
	for _, r := range text {
		if r <= '"' || r > '~' || r == '=' {
			return true
		}
	}
	return false
}

// escapeString checks if the provided string needs escaping/quoting, and
// calls strconv.Quote if needed.
func escapeString(s string) string {
	if !needsQuoting(s) {
		return s
	}
	return fmt.Sprintf("%q", s)
}

// escapeMessage checks if the provided string needs escaping/quoting, similar
// to escapeString. The difference is that this method is more lenient: it
// allows spaces inside the log message.
func escapeMessage(msg string) string {
	for _, r := range msg {
		if r == ' ' {
			continue
		}
		if r < ' ' || r > '~' || r == '=' {
			return fmt.Sprintf("%q", msg)
		}
	}
	return msg
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Handle(_ context.Context, r slog.Record) error    { return nil }
func (h *discardHandler) Enabled(_ context.Context, l slog.Level) bool     { return false }
func (h *discardHandler) WithGroup(name string) slog.Handler               { return h }
func (h *discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler         { return h }
