package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/compiler"
)

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var out []T
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-timeout:
			t.Fatal("timeout waiting for channel to close")
			return nil
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want ChatEvent
		ok   bool
	}{
		{"up", ChatEvent{Source: "message", ID: "up"}, true},
		{"alice\tup", ChatEvent{Source: "message", User: "alice", ID: "up"}, true},
		{"redeem\talice\thydrate", ChatEvent{Source: "redeem", User: "alice", ID: "hydrate"}, true},
		{"\talice\tup", ChatEvent{Source: "message", User: "alice", ID: "up"}, true},
		{"bob\tsay\thi\tthere", ChatEvent{Source: "bob", User: "say", ID: "hi\tthere"}, true},
		{"up\r\n", ChatEvent{Source: "message", ID: "up"}, true},
		{"", ChatEvent{}, false},
		{"   ", ChatEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line, "message")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLines(t *testing.T) {
	r := strings.NewReader("up\n\nalice\tdown\nfollow\tbob\t\n")

	events := collect(t, ReadLines(context.Background(), r, "", nil))

	assert.Equal(t, []ChatEvent{
		{Source: "message", ID: "up"},
		{Source: "message", User: "alice", ID: "down"},
		{Source: "follow", User: "bob", ID: ""},
	}, events)
}

func TestReadLines_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := ReadLines(ctx, strings.NewReader("a\nb\nc\n"), "message", nil)

	first := <-ch
	assert.Equal(t, "a", first.ID)
	cancel()

	// The channel closes; in-flight lines may or may not be delivered.
	rest := collect(t, ch)
	assert.LessOrEqual(t, len(rest), 2)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "up down", Normalize("  Up   DOWN "))
	assert.Equal(t, Normalize("caf\u00e9"), Normalize("cafe\u0301"), "NFC")
	assert.Equal(t, Normalize("STRASSE"), Normalize("straße"), "case folding")
}

func testRules(t *testing.T) []compiler.Rule {
	t.Helper()
	up, err := compiler.ParseExpr("kd38")
	require.NoError(t, err)
	find, err := compiler.ParseExpr("~kd17~kd70~ ku17")
	require.NoError(t, err)

	return []compiler.Rule{
		{Source: "message", ID: "Up", Action: up},
		{Source: "message", ID: "find", Category: "menu", Pause: action.PauseWhileButtonHeld, Action: find},
	}
}

func TestMatcher_Match(t *testing.T) {
	m, err := NewMatcher(testRules(t))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	env, ok := m.Match(ChatEvent{Source: "message", ID: " UP "})
	require.True(t, ok)
	name, c := env.Route()
	assert.Equal(t, action.DefaultCategory, name)
	assert.Equal(t, action.KeyDown{Code: 38}, c.Action)

	env, ok = m.Match(ChatEvent{Source: "message", ID: "FIND", User: "alice"})
	require.True(t, ok)
	name, c = env.Route()
	assert.Equal(t, "menu", name)
	assert.Equal(t, action.PauseWhileButtonHeld, c.Pause)

	_, ok = m.Match(ChatEvent{Source: "redeem", ID: "up"})
	assert.False(t, ok, "source must match")

	_, ok = m.Match(ChatEvent{Source: "message", ID: "I said up"})
	assert.False(t, ok)

	_, ok = m.Match(ChatEvent{Source: "message", ID: ""})
	assert.False(t, ok)
}

func TestMatcher_EachMatchIsFresh(t *testing.T) {
	m, err := NewMatcher(testRules(t))
	require.NoError(t, err)

	a, _ := m.Match(ChatEvent{Source: "message", ID: "find"})
	b, _ := m.Match(ChatEvent{Source: "message", ID: "find"})

	_, ca := a.Route()
	_, cb := b.Route()
	ca.Action.(action.Sequence).Actions[1] = action.KeyUp{Code: 99}
	assert.Equal(t, action.KeyUp{Code: 17}, cb.Action.(action.Sequence).Actions[1])
}

func TestNewMatcher_NormalizedDuplicate(t *testing.T) {
	rules := testRules(t)
	rules = append(rules, compiler.Rule{Source: "message", ID: "UP ", Action: action.KeyDown{Code: 1}})

	_, err := NewMatcher(rules)

	var verr *compiler.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, compiler.ErrDuplicateTrigger, verr.Code)
}

func TestTranslate(t *testing.T) {
	m, err := NewMatcher(testRules(t))
	require.NoError(t, err)

	in := make(chan ChatEvent, 4)
	in <- ChatEvent{Source: "message", ID: "up"}
	in <- ChatEvent{Source: "message", ID: "hello"}
	in <- ChatEvent{Source: "message", ID: "find"}
	close(in)

	envs := collect(t, Translate(context.Background(), in, m, nil))

	require.Len(t, envs, 2)
	name, _ := envs[0].Route()
	assert.Equal(t, action.DefaultCategory, name)
	name, _ = envs[1].Route()
	assert.Equal(t, "menu", name)
}

func TestTranslate_ContextCancel(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := Translate(ctx, make(chan ChatEvent), m, nil)
	cancel()

	assert.Empty(t, collect(t, out))
}
