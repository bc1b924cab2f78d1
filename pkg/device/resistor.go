package device

func NewResistor(id, name, pos, neg string, resistance float64) (Component, error) {
	return newTwoTerminal(KindResistor, id, name, pos, neg, resistance)
}

// Conductance returns 1/R for a resistor and 0 for every other kind.
func (c Component) Conductance() float64 {
	if c.kind != KindResistor {
		return 0
	}
	return 1.0 / c.value
}
