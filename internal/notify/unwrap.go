package notify

import (
	"reflect"

	"github.com/nfrund/typedbus/internal/hostbus"
)

// admitsAbsence reports whether T has a nil value, which is what an absent
// payload becomes on a channel of that type.
func admitsAbsence[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// normalize collapses every representation of "no object" to nil.
func normalize(obj any) any {
	if hostbus.IsAbsent(obj) {
		return nil
	}
	return obj
}

// unwrap converts a host object into a T. Absent objects become the zero
// value when T can be nil.
func unwrap[T any](name Name, obj any) (T, error) {
	var zero T
	if hostbus.IsAbsent(obj) {
		if admitsAbsence[T]() {
			return zero, nil
		}
		return zero, &Error{Kind: KindAbsentPayload, Channel: name, Want: typeName[T]()}
	}

	if v, ok := obj.(T); ok {
		return v, nil
	}

	return zero, &Error{Kind: KindTypeMismatch, Channel: name, Want: typeName[T](), Got: reflect.TypeOf(obj).String()}
}

// mustUnwrap is unwrap for delivery paths, where a mismatch is a programming
// error that cannot be reported to anyone.
func mustUnwrap[T any](s settings, name Name, obj any) T {
	v, err := unwrap[T](name, obj)
	if err != nil {
		s.logger.Error("Payload does not match channel type", "channel", name, "error", err)
		panic(err)
	}
	return v
}
