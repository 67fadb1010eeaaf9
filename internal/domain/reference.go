package domain

// ReferenceKind names the kinds of records the core checks for existence.
type ReferenceKind string

const (
	ReferenceProduct  ReferenceKind = "product"
	ReferenceCustomer ReferenceKind = "customer"
	ReferenceOrder    ReferenceKind = "order"
)
