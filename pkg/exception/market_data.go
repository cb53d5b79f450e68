package exception

import "github.com/yanun0323/errors"

var (
	ErrMarketDataUnknownSymbol = errors.New("market data: unknown symbol")
	ErrMarketDataCrossed       = errors.New("market data: crossed or empty quote")
)
