// Package models contains GORM persistence models for the AP control tables.
// They are kept apart from the domain types so the domain stays free of ORM tags.
//
// Structure:
//   - base.go: TenantAggregateModel shared by versioned aggregates
//   - match.go: match results and the exception queue
//   - payment.go: payments and their approval records
//   - audit.go: the append-only audit trail
//   - reference.go: invoices, purchase orders, goods receipts, vendor policies,
//     fiscal periods and GL posting requests read or written by the adapters
package models
