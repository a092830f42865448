// Package accessor provides reflection-backed access to plain service
// objects: read or write a named field, invoke a named method with positional
// arguments. It is the capability the terminal ServiceInvoker dispatches
// through.
package accessor

import (
	"fmt"
	"reflect"
)

// Accessor wraps one target object.
type Accessor struct {
	value reflect.Value // the target as given (pointer when settable access is wanted)
	elem  reflect.Value // the struct value fields are read from
}

// For wraps target, which must be a struct or pointer to struct. Field writes
// require a pointer.
func For(target any) (*Accessor, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return nil, fmt.Errorf("accessor: nil target")
	}
	elem := v
	if elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil, fmt.Errorf("accessor: nil pointer target")
		}
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("accessor: target must be a struct or pointer to struct, got %T", target)
	}
	return &Accessor{value: v, elem: elem}, nil
}

// Get reads the named exported field.
func (a *Accessor) Get(field string) (any, error) {
	f := a.elem.FieldByName(field)
	if !f.IsValid() {
		return nil, fmt.Errorf("accessor: no field %q on %s", field, a.elem.Type())
	}
	if !f.CanInterface() {
		return nil, fmt.Errorf("accessor: field %q on %s is unexported", field, a.elem.Type())
	}
	return f.Interface(), nil
}

// Set writes the named exported field. The target must have been wrapped as a
// pointer.
func (a *Accessor) Set(field string, value any) error {
	f := a.elem.FieldByName(field)
	if !f.IsValid() {
		return fmt.Errorf("accessor: no field %q on %s", field, a.elem.Type())
	}
	if !f.CanSet() {
		return fmt.Errorf("accessor: field %q on %s is not settable", field, a.elem.Type())
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	if !v.Type().AssignableTo(f.Type()) {
		if !v.Type().ConvertibleTo(f.Type()) {
			return fmt.Errorf("accessor: cannot assign %T to field %q (%s)", value, field, f.Type())
		}
		v = v.Convert(f.Type())
	}
	f.Set(v)
	return nil
}

// HasMethod reports whether the target has the named exported method.
func (a *Accessor) HasMethod(name string) bool {
	return a.value.MethodByName(name).IsValid()
}

// Invoke calls the named exported method with the given positional arguments.
// Methods may return nothing, a single value, an error, or (value, error);
// the outcome is normalized to (value, error).
func (a *Accessor) Invoke(method string, args []any) (any, error) {
	m := a.value.MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("accessor: no method %q on %s", method, a.value.Type())
	}
	mt := m.Type()
	if mt.NumIn() != len(args) {
		return nil, fmt.Errorf("accessor: method %q wants %d arguments, got %d", method, mt.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := mt.In(i)
		v := reflect.ValueOf(arg)
		if !v.IsValid() {
			in[i] = reflect.Zero(want)
			continue
		}
		if !v.Type().AssignableTo(want) {
			if !v.Type().ConvertibleTo(want) {
				return nil, fmt.Errorf("accessor: argument %d of %q: cannot use %T as %s", i, method, arg, want)
			}
			v = v.Convert(want)
		}
		in[i] = v
	}

	out := m.Call(in)
	return normalizeReturns(method, out)
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func normalizeReturns(method string, out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type().Implements(errType) {
			if err, _ := out[0].Interface().(error); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return out[0].Interface(), nil
	case 2:
		if !out[1].Type().Implements(errType) {
			return nil, fmt.Errorf("accessor: method %q second return value must be error", method)
		}
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return out[0].Interface(), err
	default:
		return nil, fmt.Errorf("accessor: method %q returns %d values, want at most 2", method, len(out))
	}
}
