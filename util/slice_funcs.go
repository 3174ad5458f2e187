package util

// Contains returns whether the given slice contains the given element.
func Contains[T comparable](slice []T, elem T) bool {
	for _, x := range slice {
		if x == elem {
			return true
		}
	}

	return false
}

// Filter returns the elements of the given slice for which f returns true,
// preserving order.
func Filter[T any](slice []T, f func(T) bool) []T {
	fSlice := make([]T, 0, len(slice))

	for _, elem := range slice {
		if f(elem) {
			fSlice = append(fSlice, elem)
		}
	}

	return fSlice
}
