// Package config loads chatplay configuration.
//
// Two sources feed a run:
//   - the mapping file (CUE), which binds chat events to action expressions
//   - process settings from CHATPLAY_* environment variables
//
// A mapping file looks like:
//
//	version: "1.0"
//	mapping: config: [
//		{source: "message", id: "up", actions: ["kd38"]},
//		{source: "message", id: "find", actions: ["~kd17~kd70~", "ku17"], category: "menu"},
//	]
//
// The file is unified with an embedded #Config schema and must be concrete.
// Decoded entries keep their CUE position so later compile errors can point
// at the offending line.
package config
