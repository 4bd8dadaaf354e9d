package omitnilpointers

import (
	"reflect"
)

// OmitNilPointers drops nil values and nil pointers from fields and
// dereferences the remaining pointers.
func OmitNilPointers(fields map[string]any) map[string]any {
	omitted := make(map[string]any, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}

		v := reflect.ValueOf(value)
		if v.Kind() != reflect.Ptr {
			omitted[key] = value
			continue
		}

		if v.IsNil() {
			continue
		}

		omitted[key] = v.Elem().Interface()
	}

	return omitted
}
