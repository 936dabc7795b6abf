// Package harness provides a scenario-based conformance framework for
// the replay engine.
//
// Scenarios are YAML files describing a transaction sequence and the
// expected outcome: the final account table, a fatal error code, or
// both. Each scenario runs through a fresh engine with an in-memory
// index and a fixed run token, so results are fully deterministic.
//
// Two comparison layers are available:
//
//   - EvaluateExpectations checks the expect clause field by field and
//     reports human-readable mismatches.
//   - RunWithGolden additionally compares the canonical CSV snapshot
//     byte-for-byte against a golden file, pinning down output
//     formatting (sort order, decimal truncation) that balance
//     assertions alone cannot see.
//
// Scenario files live in testdata/scenarios, golden files in
// testdata/golden.
package harness
