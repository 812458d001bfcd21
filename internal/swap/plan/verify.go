package plan

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
)

// BuildVerifySkimMin builds the verifier payload asserting the vault's
// balance for account grew by at least amountMin before the deadline.
func BuildVerifySkimMin(book *contracts.Book, chainID uint64, vault, account common.Address, amountMin *big.Int, deadline uint64) (swap.VerifyPayload, error) {
	verifier, err := book.VerifierFor(chainID)
	if err != nil {
		return swap.VerifyPayload{}, err
	}
	data, err := contracts.VerifierABI().Pack("verifyAmountMinAndSkim",
		vault, account, amountMin, new(big.Int).SetUint64(deadline))
	if err != nil {
		return swap.VerifyPayload{}, fmt.Errorf("fail to encode verifyAmountMinAndSkim: %w", err)
	}
	return swap.VerifyPayload{
		VerifierAddress: verifier,
		VerifierData:    data,
		Kind:            swap.VerifySkimMin,
		Vault:           vault,
		Account:         account,
		Amount:          amountMin.String(),
		Deadline:        deadline,
	}, nil
}

// BuildVerifyDebtMax builds the verifier payload asserting the account's
// debt in the vault does not exceed amountMax.
func BuildVerifyDebtMax(book *contracts.Book, chainID uint64, vault, account common.Address, amountMax *big.Int, deadline uint64) (swap.VerifyPayload, error) {
	verifier, err := book.VerifierFor(chainID)
	if err != nil {
		return swap.VerifyPayload{}, err
	}
	data, err := contracts.VerifierABI().Pack("verifyDebtMax",
		vault, account, amountMax, new(big.Int).SetUint64(deadline))
	if err != nil {
		return swap.VerifyPayload{}, fmt.Errorf("fail to encode verifyDebtMax: %w", err)
	}
	return swap.VerifyPayload{
		VerifierAddress: verifier,
		VerifierData:    data,
		Kind:            swap.VerifyDebtMax,
		Vault:           vault,
		Account:         account,
		Amount:          amountMax.String(),
		Deadline:        deadline,
	}, nil
}

// HasValidVerifier reports whether the response's verifier call data carries
// at least a 4-byte function selector.
func HasValidVerifier(r *swap.Response) bool {
	return len(r.Verify.VerifierData) >= 4
}
