package utils

import "cmp"

func Ptr[T any](v T) *T {
	return &v
}

func Clamp[T cmp.Ordered](v, low, high T) T {
	return min(max(v, low), high)
}
