// Package ledger is the in-memory banking core: users, their accounts, and
// the transactions that move account balances.
//
// A Directory owns users and gives out one AccountStore per user. Balances
// change only through Engine.Apply, which serialises work per account and
// keeps every balance equal to the sum of its transaction log.
package ledger
