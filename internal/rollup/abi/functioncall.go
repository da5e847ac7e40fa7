package abi

import (
	"fmt"
	"math/big"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// EncodeFunctionCall parses abiJSON (a JSON array of function fragments, in
// the same shape go-ethereum's abi.JSON expects) and packs a call to
// functionName with args, producing the 4-byte selector followed by the
// ABI-encoded arguments.
func EncodeFunctionCall(abiJSON string, functionName string, args ...interface{}) ([]byte, error) {
	parsed, err := ethabi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("abi: parse ABI JSON: %w", err)
	}
	packed, err := parsed.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("abi: pack %s: %w", functionName, err)
	}
	return packed, nil
}

// The following constants are the minimal inline ABI fragments for the five
// withdrawal function signatures this runtime emits. Each declares exactly
// one function so EncodeFunctionCall's functionName argument is
// unambiguous.

const etherWithdrawABI = `[{
	"name": "withdrawEther",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [
		{"name": "to", "type": "address"},
		{"name": "value", "type": "uint256"}
	],
	"outputs": []
}]`

const erc20TransferABI = `[{
	"name": "transfer",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "to", "type": "address"},
		{"name": "value", "type": "uint256"}
	],
	"outputs": [{"name": "", "type": "bool"}]
}]`

const erc721SafeTransferFromABI = `[{
	"name": "safeTransferFrom",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "from", "type": "address"},
		{"name": "to", "type": "address"},
		{"name": "tokenId", "type": "uint256"}
	],
	"outputs": []
}]`

const erc1155SafeTransferFromABI = `[{
	"name": "safeTransferFrom",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "from", "type": "address"},
		{"name": "to", "type": "address"},
		{"name": "id", "type": "uint256"},
		{"name": "amount", "type": "uint256"},
		{"name": "data", "type": "bytes"}
	],
	"outputs": []
}]`

const erc1155SafeBatchTransferFromABI = `[{
	"name": "safeBatchTransferFrom",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "from", "type": "address"},
		{"name": "to", "type": "address"},
		{"name": "ids", "type": "uint256[]"},
		{"name": "amounts", "type": "uint256[]"},
		{"name": "data", "type": "bytes"}
	],
	"outputs": []
}]`

func ethAddr(a types.Address) common.Address {
	return common.BytesToAddress(a.Bytes())
}

// EncodeEtherWithdraw builds the voucher payload for an Ether withdrawal:
// withdrawEther(address,uint256).
func EncodeEtherWithdraw(to types.Address, value types.Uint256) ([]byte, error) {
	return EncodeFunctionCall(etherWithdrawABI, "withdrawEther", ethAddr(to), value.BigInt())
}

// EncodeERC20Transfer builds the voucher payload for an ERC-20 withdrawal:
// transfer(address,uint256), the standard ERC-20 call — not a
// rollup-specific withdrawer, kept for on-chain compatibility.
func EncodeERC20Transfer(to types.Address, value types.Uint256) ([]byte, error) {
	return EncodeFunctionCall(erc20TransferABI, "transfer", ethAddr(to), value.BigInt())
}

// EncodeERC721SafeTransferFrom builds the voucher payload for an ERC-721
// withdrawal: safeTransferFrom(address,address,uint256).
func EncodeERC721SafeTransferFrom(from, to types.Address, id types.Uint256) ([]byte, error) {
	return EncodeFunctionCall(erc721SafeTransferFromABI, "safeTransferFrom", ethAddr(from), ethAddr(to), id.BigInt())
}

// EncodeERC1155SafeTransferFrom builds the voucher payload for a
// single-asset ERC-1155 withdrawal:
// safeTransferFrom(address,address,uint256,uint256,bytes).
func EncodeERC1155SafeTransferFrom(from, to types.Address, id, amount types.Uint256) ([]byte, error) {
	return EncodeFunctionCall(erc1155SafeTransferFromABI, "safeTransferFrom", ethAddr(from), ethAddr(to), id.BigInt(), amount.BigInt(), []byte{})
}

// EncodeERC1155SafeBatchTransferFrom builds the voucher payload for a
// batch ERC-1155 withdrawal:
// safeBatchTransferFrom(address,address,uint256[],uint256[],bytes).
func EncodeERC1155SafeBatchTransferFrom(from, to types.Address, ids, amounts []types.Uint256) ([]byte, error) {
	idInts := make([]*big.Int, len(ids))
	for i, id := range ids {
		idInts[i] = id.BigInt()
	}
	amountInts := make([]*big.Int, len(amounts))
	for i, a := range amounts {
		amountInts[i] = a.BigInt()
	}
	return EncodeFunctionCall(erc1155SafeBatchTransferFromABI, "safeBatchTransferFrom", ethAddr(from), ethAddr(to), idInts, amountInts, []byte{})
}
