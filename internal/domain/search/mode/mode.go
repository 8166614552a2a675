package mode

// Mode is how search criteria are supplied.
type Mode string

// Search mode constants.
const (
	// Text carries fully specified criterion text per descriptor.
	Text Mode = "text"
	// Example derives criteria from descriptors computed on an uploaded audio sample.
	Example Mode = "example"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == Example
}
