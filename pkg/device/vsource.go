package device

// SourceDC is the only source waveform supported.
const SourceDC = "dc"

// NewVoltageSource builds an independent DC source enforcing
// V(pos) - V(neg) = voltage.
func NewVoltageSource(id, name, pos, neg string, voltage float64) (Component, error) {
	return newTwoTerminal(KindVoltageSource, id, name, pos, neg, voltage)
}
