// Package service wires the store, indexer and retriever into one handle with
// a load, index, serve and close lifecycle.
//
// It is intended for embedding docrag into other programs without shelling out
// to the CLI.
package service
