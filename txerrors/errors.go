package txerrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ggreptile/darkfi/common"
)

// Transaction verification (V) errors
var (
	ErrVMissingCalls           = errors.New("V1|MissingCalls: Transaction has less than two contract calls.")
	ErrVMissingFee             = errors.New("V2|MissingFee: Transaction call 0 is not the native fee call.")
	ErrVMissingSignatures      = errors.New("V3|MissingSignatures: Signature count does not match the collected signature table.")
	ErrVInvalidSignature       = errors.New("V4|InvalidSignature: Transaction signature verification failed.")
	ErrVInvalidZkProof         = errors.New("V5|InvalidZkProof: Transaction ZK proof verification failed.")
	ErrVTransactionAlreadySeen = errors.New("V6|TransactionAlreadySeen: Transaction already recorded in the chain or the pending pool.")
	ErrVInternal               = errors.New("V7|InternalError: Unrecoverable validator invariant break.")
	ErrVDecode                 = errors.New("V8|DecodeError: Call payload cannot be deserialized.")
)

// Money contract (M) errors
var (
	ErrMCallIdxNonZero         = errors.New("M1|CallIdxNonZero: Fee call index must be zero.")
	ErrMFeeMissingInputs       = errors.New("M2|FeeMissingInputs: Fee call carries no inputs.")
	ErrMIncorrectFee           = errors.New("M3|IncorrectFee: Fee value is below the minimum threshold.")
	ErrMMissingFaucetKeys      = errors.New("M4|MissingFaucetKeys: Faucet pubkeys missing from the contract info tree.")
	ErrMRootNotFound           = errors.New("M5|MerkleRootNotFound: Input merkle root not found in previous state.")
	ErrMDuplicateNullifier     = errors.New("M6|DuplicateNullifier: Nullifier already exists in the call or the nullifier set.")
	ErrMDuplicateCoin          = errors.New("M7|DuplicateCoin: Coin already exists in the call or the coin set.")
	ErrMValueMismatch          = errors.New("M8|ValueMismatch: Value commitments do not sum to the identity.")
	ErrMTokenMismatch          = errors.New("M9|TokenMismatch: Token commitments are inconsistent.")
	ErrMTransferMissingInputs  = errors.New("M10|TransferMissingInputs: Transfer call carries no inputs.")
	ErrMTransferMissingOutputs = errors.New("M11|TransferMissingOutputs: Transfer call carries no outputs.")
	ErrMInternal               = errors.New("M12|InternalError: Money contract state is corrupted.")
)

// Stake contract (S) errors
var (
	ErrSNonNativeToken    = errors.New("S1|NonNativeToken: Only the native token can be staked.")
	ErrSValueMismatch     = errors.New("S2|ValueMismatch: Input and output value commitments differ.")
	ErrSRootNotFound      = errors.New("S3|MerkleRootNotFound: Input merkle root not found in money state.")
	ErrSNullifierNotFound = errors.New("S4|NullifierNotFound: Input nullifier is not a finalized money spend.")
	ErrSSpendHookMismatch = errors.New("S5|SpendHookMismatch: Invoking contract does not match the stake spend hook.")
	ErrSDuplicateCoin     = errors.New("S6|DuplicateCoin: Staked coin already exists in the stake coin set.")
)

// Chain (C) errors
var (
	ErrCUnknownContract = errors.New("C1|UnknownContract: No contract deployed under the given contract ID.")
	ErrCZkasNotFound    = errors.New("C2|ZkasNotFound: No verifying key stored for the (contract, namespace) pair.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "|"); i >= 0 {
		rest := msg[i+1:]
		if j := strings.Index(rest, ":"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return msg
}

// ErroneousTxs reports which transactions of a batch failed verification.
// The batch as a whole is rejected; callers drop the listed transactions.
type ErroneousTxs struct {
	Hashes []common.Hash
}

func (e *ErroneousTxs) Error() string {
	strs := make([]string, len(e.Hashes))
	for i, h := range e.Hashes {
		strs[i] = h.Hex()
	}
	return fmt.Sprintf("VE|ErroneousTxs: %d erroneous transactions in batch: %s",
		len(e.Hashes), strings.Join(strs, ", "))
}
