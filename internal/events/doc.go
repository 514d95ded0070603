// Package events turns chat input into routing envelopes.
//
// Lines are read from any io.Reader (stdin, a replay file, a pipe from a
// chat bridge) into ChatEvents, matched against compiled rules, and
// translated into action.Category envelopes for the engine's router.
//
// Closing the input is the shutdown signal: ReadLines closes its channel on
// EOF, Translate closes its output when its input closes, and the router
// then closes every queue's inbound channel.
package events
