package null

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// Registry resolves Go types to mimic targets.
//
// Expected usage:
//
//	t, ok, err := reg.Resolve(reflect.TypeOf((*io.Reader)(nil)).Elem())
type Registry interface {
	Resolve(rt reflect.Type) (t *Type, ok bool, err error)
}

// ErrRegistryPanic is returned if a registry implementation panics internally.
var ErrRegistryPanic = errors.New("registry: panic during Resolve")

// MapRegistry is an in-memory Registry that also introspects and caches
// unknown types on TargetOf, so one Go type always maps to one *Type.
// It is safe for concurrent use.
type MapRegistry struct {
	mu    sync.RWMutex
	items map[reflect.Type]*Type
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[reflect.Type]*Type{}}
}

// Provide stores t under rt and returns the registry for chaining.
func (r *MapRegistry) Provide(rt reflect.Type, t *Type) *MapRegistry {
	r.mu.Lock()
	r.items[rt] = t
	r.mu.Unlock()
	return r
}

// Resolve implements Registry and converts panics into errors.
func (r *MapRegistry) Resolve(rt reflect.Type) (t *Type, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			t = nil
			ok = false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	t, ok = r.Get(rt)
	return t, ok, nil
}

// Get returns the type if present (no panic).
func (r *MapRegistry) Get(rt reflect.Type) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[rt]
	return t, ok
}

// MustGet returns the type or panics with a helpful message.
func (r *MapRegistry) MustGet(rt reflect.Type) *Type {
	t, ok := r.Get(rt)
	if !ok {
		panic(fmt.Errorf("null: registry missing type %v", rt))
	}
	return t
}

// TargetOf returns the cached target for rt, introspecting it on first use.
func (r *MapRegistry) TargetOf(rt reflect.Type) (*Type, error) {
	if rt == nil {
		return nil, &InvalidTargetError{Op: "target", Err: ErrNilTarget}
	}
	if t, ok, err := r.Resolve(rt); err != nil {
		return nil, &InvalidTargetError{Op: "target", Target: rt.String(), Err: err}
	} else if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.items[rt]; ok {
		return t, nil
	}
	t := introspect(rt)
	r.items[rt] = t
	return t, nil
}

var defaultRegistry = NewMapRegistry()

// TargetOf introspects rt through the package registry.
func TargetOf(rt reflect.Type) (*Type, error) { return defaultRegistry.TargetOf(rt) }

// TypeOf returns the target for T. For interfaces it is T's method set; for
// other types it is the method set of *T.
func TypeOf[T any]() *Type {
	t, err := TargetOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return t
}

// introspect reads the exported method set of rt. Methods promoted from
// embedded struct fields are recorded as inherited.
func introspect(rt reflect.Type) *Type {
	set := rt
	if rt.Kind() != reflect.Interface && rt.Kind() != reflect.Pointer {
		set = reflect.PointerTo(rt)
	}

	promoted := make(map[string]struct{})
	elem := rt
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Struct {
		for i := 0; i < elem.NumField(); i++ {
			f := elem.Field(i)
			if !f.Anonymous {
				continue
			}
			for _, name := range exportedMethods(reflect.PointerTo(f.Type)) {
				promoted[name] = struct{}{}
			}
			if f.Type.Kind() == reflect.Pointer || f.Type.Kind() == reflect.Interface {
				for _, name := range exportedMethods(f.Type) {
					promoted[name] = struct{}{}
				}
			}
		}
	}

	var own, inherited []string
	for _, name := range exportedMethods(set) {
		if _, ok := promoted[name]; ok && !declaredOn(elem, name) {
			inherited = append(inherited, name)
			continue
		}
		own = append(own, name)
	}

	t := Declare(rt.String(), Object, own...)
	t.promoted = inherited
	return t
}

// autogenerated is the file the compiler assigns to promotion wrappers.
const autogenerated = "<autogenerated>"

// declaredOn reports whether the struct elem declares method name itself,
// overriding a method of the same name reached through an embedded field.
// Promoted methods are compiler wrappers, so their code lives in no source
// file and their symbol is not the outer type's own method.
func declaredOn(elem reflect.Type, name string) bool {
	for _, recv := range []reflect.Type{elem, reflect.PointerTo(elem)} {
		m, ok := recv.MethodByName(name)
		if !ok || !m.Func.IsValid() {
			continue
		}
		pc := m.Func.Pointer()
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if file, _ := fn.FileLine(pc); file == autogenerated {
			continue
		}
		if methodOf(fn.Name(), baseTypeName(elem.Name()), name) {
			return true
		}
	}
	return false
}

// methodOf reports whether symbol names method of receiver type typ, as in
// "example.com/pkg.(*T).M", "example.com/pkg.T.M" or "example.com/pkg.T[...].M".
func methodOf(symbol, typ, method string) bool {
	recv, ok := strings.CutSuffix(symbol, "."+method)
	if !ok {
		return false
	}
	if strings.HasSuffix(recv, ")") {
		i := strings.LastIndex(recv, ".(*")
		if i < 0 {
			return false
		}
		recv = recv[i+len(".(*") : len(recv)-1]
	} else {
		if strings.HasSuffix(recv, "]") {
			recv = recv[:strings.LastIndex(recv, "[")]
		}
		recv = recv[strings.LastIndex(recv, ".")+1:]
	}
	return baseTypeName(recv) == typ
}

// baseTypeName drops type arguments: "G[int]" becomes "G".
func baseTypeName(name string) string {
	if i := strings.Index(name, "["); i >= 0 {
		return name[:i]
	}
	return name
}

func exportedMethods(rt reflect.Type) []string {
	out := make([]string, 0, rt.NumMethod())
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if m.IsExported() {
			out = append(out, m.Name)
		}
	}
	return out
}
