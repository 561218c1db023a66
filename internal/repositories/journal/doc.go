// Package journal keeps an append-only log of successful key redemptions.
//
// The progress record's keySubmitted flag is the authoritative exactly-once
// guard. The journal adds a durable second guard: the redemptions table is
// unique per progress record, and Store.Record checks and inserts inside one
// transaction, so a second redemption for the same record is refused with
// common.ErrAlreadyRedeemed even if two writers race.
package journal
