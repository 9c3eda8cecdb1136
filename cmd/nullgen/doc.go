// Command nullgen generates static null objects from null profiles.
//
// The null package builds null types at runtime. nullgen renders the same
// behavior as plain Go so a null object can satisfy a real interface:
//
//   - You write a small *.null.yaml profile next to your interface.
//   - You add a //go:generate ... directive in the owner Go file.
//   - nullgen generates a struct with:
//       - one no-op method per declared method
//       - New<Type>() (and Get<Type>() for singletons)
//       - String() showing the display text, unless the interface declares it
//       - File()/Line() for traceable profiles
//
// How method bodies are chosen
//
// nullgen builds the runtime type with null.Build and the profile, then sends
// every declared method to an instance. A method that answers with the instance
// (a black hole) returns the receiver wherever the result type is the target
// interface or the generated pointer type. All other results are zero values.
//
// Profile format (*.null.yaml)
//
//	package: notify
//	imports: ["context"]
//	mimic:
//	  name: Notifier
//	  methods:
//	    - name: Notify
//	      params:
//	        - {name: ctx, type: context.Context}
//	        - {name: msg, type: string}
//	      returns:
//	        - {type: error}
//	blackHole: true
//	singleton: false
//	traceable: false
//
// Owner file
//
//	//go:generate go run github.com/sghaida/naught/cmd/nullgen --spec ./notifier.null.yaml --out ./notifier_null.gen.go
//
// Imports come from the owner file and the profile's imports list. Only
// packages referenced by a method signature are kept.
//
// Usage
//
//	nullgen --spec <file.null.yaml> --out <file.gen.go> [--verbose]
//
// Exit codes: 0 on success, 2 on usage errors, 1 on everything else.
package main
