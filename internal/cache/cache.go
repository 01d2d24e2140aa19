// Package cache stores resolved NBP rates and USD prices. The cache only
// speeds up a run; a miss is always answered by the resolvers, so losing the
// store never affects correctness.
package cache

import "sync"

// Store is the lookup cache shared by both resolvers. Rates are keyed by
// (currency, quote date), prices by (symbol, hour-start unix seconds).
type Store interface {
	Rate(currency, date string) (float64, bool)
	PutRate(currency, date string, rate float64)
	Price(symbol string, hourUnix int64) (float64, bool)
	PutPrice(symbol string, hourUnix int64, price float64)
	Close() error
}

type rateKey struct {
	currency string
	date     string
}

type priceKey struct {
	symbol string
	hour   int64
}

// Memory is the default process-lifetime store.
type Memory struct {
	mu     sync.Mutex
	rates  map[rateKey]float64
	prices map[priceKey]float64
}

func NewMemory() *Memory {
	return &Memory{
		rates:  make(map[rateKey]float64),
		prices: make(map[priceKey]float64),
	}
}

func (m *Memory) Rate(currency, date string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rates[rateKey{currency, date}]
	return r, ok
}

func (m *Memory) PutRate(currency, date string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rateKey{currency, date}] = rate
}

func (m *Memory) Price(symbol string, hourUnix int64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[priceKey{symbol, hourUnix}]
	return p, ok
}

func (m *Memory) PutPrice(symbol string, hourUnix int64, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[priceKey{symbol, hourUnix}] = price
}

func (m *Memory) Close() error { return nil }
