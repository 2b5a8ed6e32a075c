package data

import "GammaExposure/internal/model"

type storeRequest struct {
	sale    model.TimeSale
	replyCh chan map[string]model.TimeSale
	action  string // "set" or "snapshot"
}

// TimeSaleStore keeps the most recent trade print per symbol. A single
// goroutine owns the map; callers talk to it over a channel.
type TimeSaleStore struct {
	requests chan storeRequest
	done     chan struct{}
}

func NewTimeSaleStore() *TimeSaleStore {
	s := &TimeSaleStore{
		requests: make(chan storeRequest, 1000),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *TimeSaleStore) run() {
	defer close(s.done)
	sales := make(map[string]model.TimeSale)
	for req := range s.requests {
		switch req.action {
		case "set":
			// Out-of-order prints do not replace a newer one.
			if cur, ok := sales[req.sale.Symbol]; ok && req.sale.TradeTime.Before(cur.TradeTime) {
				continue
			}
			sales[req.sale.Symbol] = req.sale
		case "snapshot":
			snapshot := make(map[string]model.TimeSale, len(sales))
			for k, v := range sales {
				snapshot[k] = v
			}
			req.replyCh <- snapshot
		}
	}
}

func (s *TimeSaleStore) Set(sale model.TimeSale) {
	s.requests <- storeRequest{sale: sale, action: "set"}
}

// Snapshot returns a copy of the latest print per symbol. It observes
// every Set issued before it.
func (s *TimeSaleStore) Snapshot() map[string]model.TimeSale {
	ch := make(chan map[string]model.TimeSale, 1)
	s.requests <- storeRequest{replyCh: ch, action: "snapshot"}
	return <-ch
}

// Close stops the owning goroutine. The store must not be used afterwards.
func (s *TimeSaleStore) Close() {
	close(s.requests)
	<-s.done
}
