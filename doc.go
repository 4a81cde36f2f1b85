// Package suppliers implements a small supplier registry service: account
// registration and login backed by bcrypt and JWT session tokens, a
// claims-based authorization gate, and bun repositories for supplier
// records.
package suppliers
