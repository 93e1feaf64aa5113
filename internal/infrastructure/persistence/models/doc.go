// Package models contains the GORM persistence models behind the SalesHub
// repositories. Domain entities carry no ORM tags; each model here maps one
// table and converts to and from its domain type.
//
// Structure:
//   - base.go: shared columns (id, tenant_id, version, timestamps)
//   - identity.go: tenants and users
//   - crm.go: customers and their activity timeline
//   - inventory.go: trailer units
//   - sales.go: deliveries and commission lines
//   - quote.go: quotes and quote lines
//   - messaging.go: the outbound message log
//   - onboarding.go: per-user onboarding checklists
package models
