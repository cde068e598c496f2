// Package merge reconciles the local entry set with entries pulled from the
// remote using last-write-wins per id.
package merge

import "github.com/dmitrijs2005/threeline/internal/client/models"

// Merge returns the union of local and remote keyed by id. For an id present
// on both sides the remote copy wins when its UpdatedAt is greater than or
// equal to the local one. Entries only present locally are kept. The result
// is in display order and shares no pointers with the inputs.
func Merge(local, remote []models.Entry) []models.Entry {
	merged, _ := reconcile(local, remote)
	return merged
}

// Result is Merge that also returns the remote entries that replaced or
// added a slot, which supersede queued local versions.
func Result(local, remote []models.Entry) (merged, remoteWins []models.Entry) {
	return reconcile(local, remote)
}

func reconcile(local, remote []models.Entry) ([]models.Entry, []models.Entry) {
	byID := make(map[string]models.Entry, len(local)+len(remote))
	order := make([]string, 0, len(local)+len(remote))

	for _, e := range local {
		if _, ok := byID[e.ID]; !ok {
			order = append(order, e.ID)
		}
		byID[e.ID] = e
	}

	wins := []models.Entry{}
	won := make(map[string]int, len(remote))
	for _, r := range remote {
		cur, ok := byID[r.ID]
		if ok && r.UpdatedAt < cur.UpdatedAt {
			continue
		}
		if !ok {
			order = append(order, r.ID)
		}
		byID[r.ID] = r

		// a pull may carry the same id twice; keep the last winner only
		if i, seen := won[r.ID]; seen {
			wins[i] = r.Clone()
			continue
		}
		won[r.ID] = len(wins)
		wins = append(wins, r.Clone())
	}

	merged := make([]models.Entry, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id].Clone())
	}
	models.SortForDisplay(merged)
	return merged, wins
}
