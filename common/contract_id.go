package common

import "encoding/json"

// ContractID identifies a deployed contract. Native contract IDs are
// derived deterministically from the contract name so that every node
// agrees on them without any registration step.
type ContractID [32]byte

// DeriveContractID derives the canonical contract ID for a named
// native contract.
func DeriveContractID(name string) ContractID {
	var cid ContractID
	copy(cid[:], ComputeHash([]byte("contract_id:"+name)))
	return cid
}

func BytesToContractID(b []byte) ContractID {
	var cid ContractID
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(cid[32-len(b):], b)
	return cid
}

func (c ContractID) Bytes() []byte {
	return c[:]
}

func (c ContractID) Hex() string {
	return Bytes2Hex(c[:])
}

func (c ContractID) String() string {
	return c.Hex()
}

func (c ContractID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *ContractID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	*c = BytesToContractID(Hex2Bytes(hexStr))
	return nil
}
