package memory

import (
	"reflect"
	"sync"

	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

var plainCache sync.Map // reflect.Type -> error

// CheckPlain reports whether values of typ can be copied byte-wise without owning
// any heap resource: no pointers, slices, maps, strings, channels, funcs or interfaces.
func CheckPlain(typ reflect.Type) error {
	if typ == nil {
		return exception.ErrNotPlainType
	}
	if cached, ok := plainCache.Load(typ); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}

	var err error
	if bad := firstNonPlain(typ); bad != "" {
		err = errors.Wrapf(exception.ErrNotPlainType, "%s contains %s", typ.String(), bad)
	}
	plainCache.Store(typ, err)
	return err
}

// IsPlain is the generic form of CheckPlain.
func IsPlain[T any]() bool {
	return CheckPlain(reflect.TypeFor[T]()) == nil
}

func firstNonPlain(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ""
	case reflect.Array:
		return firstNonPlain(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if bad := firstNonPlain(typ.Field(i).Type); bad != "" {
				return bad
			}
		}
		return ""
	default:
		return typ.Kind().String()
	}
}
