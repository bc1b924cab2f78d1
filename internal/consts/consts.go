package consts

const (
	DefaultGroundNode = "0"   // node id fixed at 0 V unless a circuit overrides it
	GroundAlias       = "gnd" // SPICE decks may name ground either way
	GroundComponentID = "gnd" // id of the ground component synthesized by readers
)
