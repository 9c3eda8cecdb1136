// Package null builds null object types: stand-ins whose every message is a
// safe no-op instead of a missing-reference failure.
//
// A Builder collects configuration as two ordered lists of deferred
// operations, one filling the generated capability table and one adjusting
// the finished type, plus a customization layer the caller writes directly.
// Generate composes them in a single pass:
//
//   - base type (BasicObject by default, Object or the target itself when mimicking)
//   - generated layer (instance operations, in registration order)
//   - customization layer (Define inside the Customize callback; wins ties)
//   - type operations (singleton holder, constructor shortcut, identity)
//
// Messages are sent by name through Instance.Send or Instance.Call. Types
// that declare no interface answer everything through a MethodMissing
// catch-all, returning nil or, after BlackHole, the receiver.
//
// Quick guidance
//
// Use Mimic when callers only send messages; use Impersonate when they also
// check ancestry with IsA. Use a Profile (YAML) when the configuration lives
// next to the code, and cmd/nullgen when you want a static Go type instead of
// runtime dispatch.
//
// Import
//
//	"github.com/sghaida/naught/null"
package null
