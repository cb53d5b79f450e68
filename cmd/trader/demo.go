package main

import (
	"execcore/internal/schema"
	"execcore/pkg/bridge"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const demoSymbol = "DOGE/USDT"

// runDemo walks the flat call surface the way an embedding runtime would:
// cache a five level book, buy 5000 at market, sell 3000 at market.
func runDemo() error {
	if bridge.Init() != 0 {
		return errors.New("engine init failed")
	}
	defer bridge.Shutdown()
	logs.Infof("execcore %s", bridge.Version())

	bridge.Observe(func(e schema.Event) {
		logs.Infof("event %s order=%d price=%s qty=%s %s", e.Type, e.OrderID, e.Price, e.Quantity, e.Message)
	})

	bridge.UpdateOrderBook(demoSymbol,
		[]float64{0.3199, 0.3198, 0.3197, 0.3196, 0.3195},
		[]float64{100000, 200000, 300000, 400000, 500000},
		[]float64{0.3201, 0.3202, 0.3203, 0.3204, 0.3205},
		[]float64{80000, 150000, 220000, 280000, 350000},
	)
	logs.Infof("mid %.4f, spread %.4f%%, imbalance(5) %.4f",
		bridge.MidPrice(demoSymbol), bridge.SpreadPercent(demoSymbol), bridge.Imbalance(demoSymbol, 5))
	logs.Infof("bids %.0f @ vwap %.6f, asks %.0f @ vwap %.6f",
		bridge.Liquidity(demoSymbol, 0, 5), bridge.VWAP(demoSymbol, 0, 5),
		bridge.Liquidity(demoSymbol, 1, 5), bridge.VWAP(demoSymbol, 1, 5))

	buy := bridge.SubmitOrder(demoSymbol, int(schema.SideBuy), int(schema.OrderTypeMarket), 5000, 0)
	if buy == 0 {
		return errors.New("buy rejected")
	}
	sell := bridge.SubmitOrder(demoSymbol, int(schema.SideSell), int(schema.OrderTypeMarket), 3000, 0)
	if sell == 0 {
		return errors.New("sell rejected")
	}

	qty, entry, pnl, ok := bridge.GetPosition(demoSymbol)
	if ok == 0 {
		return errors.New("position missing after fills")
	}
	logs.Infof("position %s qty=%.2f entry=%.4f realized=%.4f", demoSymbol, qty, entry, pnl)
	logs.Infof("equity %.2f", bridge.GetEquity())
	return nil
}
