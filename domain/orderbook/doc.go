// Package orderbook implements the matching core for a single instrument:
// two sides of resting limit orders with price-time priority, market order
// execution against the contra side, and O(1) cancellation.
//
// The package is single-writer and performs no locking of its own. Order
// records live in a slab arena addressed by integer handles; price levels
// root intrusive doubly linked FIFO lists of those handles, and a red-black
// tree per side keeps the levels sorted by price.
package orderbook
