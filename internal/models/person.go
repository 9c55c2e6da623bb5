package models

// Person is a group member. Identity is the opaque ID; display attributes
// are mutable and live wherever the host keeps profiles.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string

	// Name is the display name.
	Name string
}
