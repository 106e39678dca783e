// Package helpers holds small constructor guards shared by the registry packages.
package helpers

import "reflect"

// StrPanic panics with panicMessage if p is empty; otherwise returns p.
//
// Used for fail-fast validation of required strings in constructors (peer addresses, node id).
func StrPanic(p string, panicMessage string) string {
	if p == "" {
		panic(panicMessage)
	}
	return p
}

// NilPanic panics with panicMessage if v is nil (nil interface, pointer, slice, map, chan or func); otherwise returns v.
//
// Called from service and adapters constructors when validating required dependencies
// (lease store, clock, logger, peer client, metrics).
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
