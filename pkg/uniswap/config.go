package uniswap

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Config struct {
	rpcClient     *ethclient.Client
	routerAddress *common.Address
}

func NewConfig(rpcClient *ethclient.Client, routerAddress *common.Address) *Config {
	return &Config{
		rpcClient:     rpcClient,
		routerAddress: routerAddress,
	}
}
