// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: Row and VersionedRow embedded by every table
// - student.go: the roster row with its fee plan columns
// - ledger.go: term ledger entries and payment records
package models
