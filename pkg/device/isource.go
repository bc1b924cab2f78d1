package device

// NewCurrentSource builds an independent DC current source. A positive
// current enters pos from the circuit and leaves through neg.
func NewCurrentSource(id, name, pos, neg string, current float64) (Component, error) {
	return newTwoTerminal(KindCurrentSource, id, name, pos, neg, current)
}
