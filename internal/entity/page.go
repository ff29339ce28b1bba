package entity

// Page is one authoritative page of a list endpoint.
type Page[T any] struct {
	Items      []T
	TotalPages int
}
