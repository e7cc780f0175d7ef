// Package adapter defines the contract every external-source adapter
// implements: a lazy, batched stream of normalized facts for a store and
// date window, with a four-kind error taxonomy (Transient, Auth, Schema,
// Fatal) that the sync orchestrator keys its retry and reporting policy on.
//
// Concrete adapters live in internal/meta, internal/shopify, and
// internal/salla.
package adapter
