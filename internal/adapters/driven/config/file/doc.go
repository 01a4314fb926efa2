// Package file holds the filesystem-backed config adapters.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with env overrides
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
