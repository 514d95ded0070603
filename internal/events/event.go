package events

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
)

// DefaultSource is the source of lines that do not name one.
const DefaultSource = "message"

// ChatEvent is one occurrence on the chat side: a message, a redeem, a
// follow. ID is what rules match on (for messages, the message text).
type ChatEvent struct {
	Source string `json:"source"`
	ID     string `json:"id"`
	User   string `json:"user,omitempty"`
}

// ParseLine decodes one input line. Tab-separated fields select the form:
//
//	text
//	user<TAB>text
//	source<TAB>user<TAB>text
//
// source defaults to the given value. Blank lines yield false.
func ParseLine(line, source string) (ChatEvent, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return ChatEvent{}, false
	}

	fields := strings.SplitN(line, "\t", 3)
	switch len(fields) {
	case 1:
		return ChatEvent{Source: source, ID: fields[0]}, true
	case 2:
		return ChatEvent{Source: source, User: fields[0], ID: fields[1]}, true
	default:
		src := fields[0]
		if src == "" {
			src = source
		}
		return ChatEvent{Source: src, User: fields[1], ID: fields[2]}, true
	}
}

// ReadLines streams events parsed from r until EOF, a read error, or ctx
// ends. The returned channel is closed when reading stops.
func ReadLines(ctx context.Context, r io.Reader, source string, logger *slog.Logger) <-chan ChatEvent {
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		source = DefaultSource
	}

	out := make(chan ChatEvent)
	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ev, ok := ParseLine(scanner.Text(), source)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("reading events", "error", err)
			return
		}
		logger.Debug("event input closed")
	}()
	return out
}
