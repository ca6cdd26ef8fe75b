package catalog

// Signature identifies one supported controller model by the exact description
// its USB interface reports.
type Signature struct {
	Name        string
	Description string
}

// ROE200 is the Sutter Instrument ROE-200 / MPC-200 controller.
var ROE200 = Signature{Name: "ROE-200", Description: "Sutter Instrument ROE-200"}

// DefaultSignatures returns the controllers recognized out of the box.
func DefaultSignatures() []Signature {
	return []Signature{ROE200}
}

// Signatures returns a copy of the recognized signatures.
func (c *Catalog) Signatures() []Signature {
	return append([]Signature(nil), c.signatures...)
}

// Classify returns the signature matching d. Matching is exact and case-sensitive.
func (c *Catalog) Classify(d Device) (Signature, bool) {
	for _, s := range c.signatures {
		if d.Description == s.Description {
			return s, true
		}
	}

	return Signature{}, false
}

// IsManipulator reports whether d is a supported manipulator controller.
func (c *Catalog) IsManipulator(d Device) bool {
	_, ok := c.Classify(d)
	return ok
}

// Manipulators lists the supported controllers of a fresh snapshot, in catalog order.
func (c *Catalog) Manipulators() []Device {
	devices := c.List()

	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if c.IsManipulator(d) {
			out = append(out, d)
		}
	}

	return out
}

// CountManipulators returns len(Manipulators()).
func (c *Catalog) CountManipulators() int {
	return len(c.Manipulators())
}
