package utils

// OrNil returns the pointed-to value, or an untyped nil when v is nil, so an
// absent field encodes as JSON null.
func OrNil[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
