package hostbus

import "reflect"

func isNilValue(obj any) bool {
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// sameObject compares two posted objects without panicking on values that
// cannot be compared with ==. Such values only match themselves when they
// share an underlying pointer (maps, slices, funcs).
func sameObject(a, b any) bool {
	if IsAbsent(a) || IsAbsent(b) {
		return IsAbsent(a) && IsAbsent(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

// matchesSender reports whether a post carrying object passes a sender filter.
// A nil filter accepts everything.
func matchesSender(filter, object any) bool {
	if filter == nil {
		return true
	}
	return sameObject(filter, object)
}
