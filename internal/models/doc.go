// Package models defines the core domain models for Ledgex.
//
// # Models
//
//   - Person: a group member, identified by an opaque id
//   - Expense: one shared expense plus how it is split
//   - Group: the ledger unit, people and expenses sharing a base currency
//   - SettlementReceipt: durable "has this transfer been paid" state
//   - User: a registered account (auth layer)
//
// # Design Principles
//
//  1. **Amounts are exact**: all money fields are money.Amount (decimal),
//     never floating point.
//  2. **Expenses are immutable records**: an edit replaces the expense
//     wholesale; nothing partially mutates a stored expense.
//  3. **Derived state is recomputed**: balances and simplified debts are
//     never stored. The only durable settlement state is the IsReceived
//     flag on a receipt; everything else is rebuilt from the expense
//     history on every change.
//  4. **Avoid circular references**: relationships use id strings, not
//     pointers.
package models
