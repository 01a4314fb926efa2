// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - KnowledgeStore: document/chunk/vector persistence
//   - VectorIndex: nearest-neighbour search over the loaded snapshot
//   - EmbeddingService: text (and image) vector generation
//   - LLMService: grounded answer generation
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
//   - PromptStore: customisable prompt templates; services fall back to
//     built-in defaults when nil
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
