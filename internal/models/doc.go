// Package models defines the core domain models for tripsplit.
//
// # Models
//
//   - User: a registered account, identified by email
//   - Trip: a bounded expense-sharing session with a shareable join code
//   - Member: a user's membership in a trip (host or approved/pending joiner)
//   - Expense: a single payment by one member, split across trip members
//   - Settlement: a recorded peer-to-peer payment that clears outstanding debt
//
// # Design Principles
//
//  1. **Decimal money**: all amounts are decimal.Decimal; float64 never touches
//     a currency value.
//  2. **Avoid circular references**: relationships use ID strings, not pointers.
//  3. **Snapshots over joins**: a trip member carries a display-name snapshot so
//     balance output never needs a user lookup.
package models
