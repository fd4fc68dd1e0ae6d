// Package domain defines the core paste types and the interfaces shared between packages.
//
// Concept-oriented files (paste.go, event.go, errors.go) hold contracts only, no implementation.
// Interfaces live here so adapters can depend on them without importing each other.
package domain
