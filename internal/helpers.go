package internal

import "reflect"

func ZeroValue[T any]() T {
	var nilValue T
	return nilValue
}

// IsZero reports whether v equals the zero value of T.
// Works for any T, including interfaces holding non-comparable values.
func IsZero[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}

func TypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil))
	return t.Elem().String()
}

func InstanceTypeName(instance any) string {
	t := reflect.TypeOf(instance)
	if t == nil {
		return "nil"
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}
