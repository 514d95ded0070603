// Package action defines the value types scheduled by the engine.
//
// This package contains type definitions only. All other internal packages
// import action; action imports nothing internal.
//
// Key design constraints:
//   - Action is a closed sum type (sealed interface). Switches over it are
//     expected to be exhaustive.
//   - Action trees are immutable once compiled. A tree is cloned whenever a
//     Container is built, so the engine may rewrite a container's head without
//     touching the compiled rule it came from.
//   - Category names are normalized through NormalizeCategory; DefaultCategory
//     is reserved for uncategorized actions.
package action
