package mapper

// Strategy names how a hit is turned into a normalized record.
type Strategy string

// Strategy constants.
const (
	// FlatObject reads top-level fields through templates.
	FlatObject Strategy = "flat_object"
	// NestedObject reads nested fields through templates.
	NestedObject Strategy = "nested_object"
	// ArrayFind reads fields out of filtered arrays through templates.
	ArrayFind Strategy = "array_find"
	// OBOOntology reads the fixed OLS fields label, obo_id and iri.
	OBOOntology Strategy = "obo_ontology"
	// Custom delegates to a registered mapper function.
	Custom Strategy = "custom"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	switch s {
	case FlatObject, NestedObject, ArrayFind, OBOOntology, Custom:
		return true
	}
	return false
}
