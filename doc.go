// Package naught builds null objects for Go.
//
// A null object implements some interface but turns every operation into a
// no-op, so callers never check for a missing collaborator. The repository
// offers two ways to get one:
//
//   - null: a runtime builder. Configure it with a callback (mimic a target's
//     message set, black-hole stubs, singleton, traceable construction sites,
//     conversions, your own overrides) and get back a generated type whose
//     instances answer messages sent by name.
//   - cmd/nullgen: a code generator. Describe the interface in a *.null.yaml
//     profile, add a go:generate directive, and get a static struct with one
//     stub method per interface method.
//
// Both read the same profile format and share the same semantics: nullgen
// builds the runtime type first and renders what it observes.
//
// Subpackages:
//   - null: the builder, generated types and profiles
//   - cmd/nullgen: code generator for static null objects
//   - examples/*: runnable examples for each approach
package naught
