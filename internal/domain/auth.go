package domain

// ActorKind differentiates customers vs shop staff.
type ActorKind string

const (
	ActorKindCustomer ActorKind = "CUSTOMER"
	ActorKindStaff    ActorKind = "STAFF"
	ActorKindSystem   ActorKind = "SYSTEM"
)

// Actor is the opaque caller identity passed through to persisted rows and events.
type Actor struct {
	ID   string
	Kind ActorKind
}

// SystemActor attributes changes made by background triggers.
var SystemActor = Actor{ID: "system", Kind: ActorKindSystem}
