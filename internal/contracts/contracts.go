// Package contracts holds the per-chain address book for the swapper and
// verifier contracts together with their ABIs.
package contracts

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed abi/swapper.json abi/swap_verifier.json abi/erc20.json
var abiFS embed.FS

var (
	swapperABI  abi.ABI
	verifierABI abi.ABI
	erc20ABI    abi.ABI
)

func init() {
	swapperABI = mustParseABI("abi/swapper.json")
	verifierABI = mustParseABI("abi/swap_verifier.json")
	erc20ABI = mustParseABI("abi/erc20.json")
}

func mustParseABI(path string) abi.ABI {
	raw, err := abiFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("fail to read embedded abi %s: %v", path, err))
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("fail to parse abi %s: %v", path, err))
	}
	return parsed
}

func SwapperABI() abi.ABI  { return swapperABI }
func VerifierABI() abi.ABI { return verifierABI }
func ERC20ABI() abi.ABI    { return erc20ABI }

// Book maps chain ids to deployed swapper and verifier addresses. It is
// loaded once at startup; config may override or extend the defaults.
type Book struct {
	Swapper  map[uint64]common.Address
	Verifier map[uint64]common.Address
}

// DefaultBook returns the known production deployments.
func DefaultBook() *Book {
	return &Book{
		Swapper: map[uint64]common.Address{
			1:     common.HexToAddress("0x2Bba09866b6F1025258542478C39720A09B728bF"),
			8453:  common.HexToAddress("0x0D3d0F97eD816Ca3350D627AD8e57B6AD41774df"),
			137:   common.HexToAddress("0x3e43F3CE1C364722df6470381Fa1F15ffbFB37E3"),
			43114: common.HexToAddress("0x6E1C286e888Ab5911ca37aCeD81365d57eC29a06"),
			56:    common.HexToAddress("0xAE4043937906975E95F885d8113D331133266Ee4"),
			1923:  common.HexToAddress("0x05Eb1A647265D974a1B0A57206048312604Ac6C3"),
			146:   common.HexToAddress("0xbAf5B12c92711a3657DD4adA6b3C7801e83Bb56a"),
			80094: common.HexToAddress("0x4A35e6A872cf35623cd3fD07ebECEDFc0170D705"),
			130:   common.HexToAddress("0x319E8ecd3BaB57fE684ca1aCfaB60c5603087B3A"),
			60808: common.HexToAddress("0x697Ca30D765c1603890D88AAffBa3BeCCe72059d"),
			42161: common.HexToAddress("0x6eE488A00A2ef1E2764cD7245F8a77C40060A7C7"),
			59144: common.HexToAddress("0x1480Cfff566f27BbB2AEAd6eeABEc4BA068e5405"),
			9745:  common.HexToAddress("0x419730b755c6e76B42D2CaD9a2674a8DC748dA38"),
			999:   common.HexToAddress("0x1dAbE49020104803084F67C057579a30b396206e"),
		},
		Verifier: map[uint64]common.Address{
			1:     common.HexToAddress("0xae26485ACDDeFd486Fe9ad7C2b34169d360737c7"),
			8453:  common.HexToAddress("0x30660764A7a05B84608812C8AFC0Cb4845439EEe"),
			137:   common.HexToAddress("0x50C5ca05E916459F32c517932f1b4D78fb11018F"),
			43114: common.HexToAddress("0x0d7938D9c31Cd7dD693752074284af133c1142de"),
			56:    common.HexToAddress("0xA8a4f96EC451f39Eb95913459901f39F5E1C068B"),
			1923:  common.HexToAddress("0x392C1570b3Bf29B113944b759cAa9a9282DA12Fe"),
			146:   common.HexToAddress("0x003ef4048b45a5A79D4499aaBd52108B3Bc9209f"),
			80094: common.HexToAddress("0x6fFf8Ac4AB123B62FF5e92aBb9fF702DCBD6C939"),
			130:   common.HexToAddress("0x7eaf8C22480129E5D7426e3A33880D7bE19B50a7"),
			60808: common.HexToAddress("0x296041DbdBC92171293F23c0a31e1574b791060d"),
			42161: common.HexToAddress("0x7b16DAaFa76CfeC8C08D7a68aF31949B37ebfdF5"),
			59144: common.HexToAddress("0x77C9B0E7Ac0405797F04E5230Ed0A54DB39f98f0"),
			9745:  common.HexToAddress("0xB695C0aC484F46dD8f279452209b8C53674974bD"),
			999:   common.HexToAddress("0x02632F49E00a996DB4e2cC114D301542e48C0641"),
		},
	}
}

func (b *Book) SwapperFor(chainID uint64) (common.Address, error) {
	addr, ok := b.Swapper[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("swapper contract not found for chain %d", chainID)
	}
	return addr, nil
}

func (b *Book) VerifierFor(chainID uint64) (common.Address, error) {
	addr, ok := b.Verifier[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("verifier contract not found for chain %d", chainID)
	}
	return addr, nil
}
