// Package entries provides the client-side persistence layer for journal
// entries.
//
// The Repository interface covers the row-level operations the store needs:
// full-row upsert by id, listing every row (tombstones included), lookup by
// id and truncation for backup restore. SQLiteRepository implements it over
// a dbx.DBTX, so the same code runs against *sql.DB or inside a *sql.Tx.
//
// Typical usage
//
//	repo := entries.NewSQLiteRepository(tx)
//	_ = repo.Upsert(ctx, entry)
//	all, _ := repo.GetAll(ctx)
package entries
