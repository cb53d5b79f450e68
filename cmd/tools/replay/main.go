package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"execcore/internal/journal"
	"execcore/internal/schema"
	"execcore/pkg/conn"

	"github.com/yanun0323/logs"
)

func main() {
	driver := flag.String("driver", conn.DriverSQLite, "Journal driver: sqlite or postgres")
	dsn := flag.String("dsn", "testdata/journal.db", "Journal DSN (sqlite path or postgres URL)")
	symbol := flag.String("symbol", "", "Only replay events of this symbol")
	eventType := flag.String("type", "", "Only replay events of this type, e.g. ORDER_FILLED")
	limit := flag.Int("limit", 0, "Maximum events to read (0=unlimited)")
	quiet := flag.Bool("quiet", false, "Print the summary only")
	flag.Parse()

	client, err := conn.New(conn.Option{Driver: *driver, ConnString: *dsn})
	if err != nil {
		logs.Errorf("journal open failed, err: %+v", err)
		os.Exit(1)
	}
	store, err := journal.NewStore(client, 0)
	if err != nil {
		_ = client.Close()
		logs.Errorf("journal store failed, err: %+v", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	records, err := store.Events(ctx, *symbol, *limit)
	if err != nil {
		logs.Errorf("journal read failed, err: %+v", err)
		os.Exit(1)
	}

	var sum summary
	for i, r := range records {
		if *eventType != "" && r.Type != *eventType {
			continue
		}
		sum.add(r)
		if *quiet {
			continue
		}
		fmt.Printf("%06d seq=%d type=%s code=%s order=%d symbol=%s price=%s qty=%s ts=%d %s\n",
			i+1, r.Seq, r.Type, schema.ErrorCode(r.Code), r.OrderID, r.Symbol,
			schema.Price(r.Price), schema.Quantity(r.Quantity), r.Timestamp, r.Message)
	}
	sum.print()
}

type summary struct {
	total    int
	byType   map[string]int
	rejects  map[schema.ErrorCode]int
	notional map[string]schema.Notional
	first    int64
	last     int64
}

func (s *summary) add(r journal.EventRecord) {
	if s.byType == nil {
		s.byType = map[string]int{}
		s.rejects = map[schema.ErrorCode]int{}
		s.notional = map[string]schema.Notional{}
	}
	s.total++
	s.byType[r.Type]++
	if r.Code != 0 {
		s.rejects[schema.ErrorCode(r.Code)]++
	}
	if r.Type == schema.EventOrderFilled.String() {
		if n, ok := schema.NotionalOf(schema.Price(r.Price), schema.Quantity(r.Quantity)); ok {
			s.notional[r.Symbol] += n
		}
	}
	if s.first == 0 || r.Timestamp < s.first {
		s.first = r.Timestamp
	}
	if r.Timestamp > s.last {
		s.last = r.Timestamp
	}
}

func (s *summary) print() {
	fmt.Printf("events=%d span=%s\n", s.total, time.Duration(s.last-s.first))
	for t := schema.EventType(0); t.IsAvailable(); t++ {
		if n := s.byType[t.String()]; n > 0 {
			fmt.Printf("  %-24s %d\n", t, n)
		}
	}
	for code, n := range s.rejects {
		fmt.Printf("  reject %-17s %d\n", code, n)
	}
	for sym, n := range s.notional {
		fmt.Printf("  filled %-17s %.6f\n", sym, n.Float64())
	}
}
