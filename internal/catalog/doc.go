// Package catalog lists the assets a price condition may name.
//
// A Catalog is built once, either offline with Builtin or from a
// Binance-compatible exchangeInfo endpoint with Load, and then shared
// read-only. Each asset carries a Class that selects the price tolerance
// the oracle applies when comparing independent feeds.
package catalog
