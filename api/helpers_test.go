package api

import (
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

// ok fails the test if err is not nil.
func ok(tb testing.TB, err error) {
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("%s:%d: unexpected error: %s", filepath.Base(file), line, err.Error())
	}
}

// equals fails the test if got is not equal to want.
func equals(tb testing.TB, got interface{}, want interface{}) {
	if !reflect.DeepEqual(got, want) {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("%s:%d: got: %#v, want: %#v", filepath.Base(file), line, got, want)
	}
}

// notEquals fails the test if got equals notWant.
func notEquals(tb testing.TB, got interface{}, notWant interface{}) {
	if reflect.DeepEqual(got, notWant) {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("%s:%d: got: %#v, want anything else", filepath.Base(file), line, got)
	}
}
