// Package extgate provides the ExtGate host SDK for gating editor extensions
// behind an administrator-configured allow-list policy.
//
// The core lives in application/policy: a layered evaluator that resolves an
// extension descriptor against the configured policy table (id rule, publisher
// rule, wildcard, default deny). The host package gates manifest loading and
// WASM instantiation on the evaluator's verdict.
package extgate

// Version is the SDK release version. Extension manifests may declare a
// minHostVersion; the host loader rejects manifests requiring a newer host.
const Version = "0.4.1"
