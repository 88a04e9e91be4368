package validator

// GasData aggregates the gas a transaction consumed across its calls'
// phases and boundary verifications. The weights are placeholders; the
// accounting is wired so pricing can be swapped in without touching the
// verification path.
type GasData struct {
	Phases     uint64
	Signatures uint64
	Proofs     uint64
}

// Flat per-verification charges.
const (
	gasPerSignature = 50
	gasPerProof     = 500
)

// Total returns the transaction's total gas.
func (g *GasData) Total() uint64 {
	return g.Phases + g.Signatures + g.Proofs
}
