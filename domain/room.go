package domain

import (
	"sort"
	"strings"
)

// RoomKey derives the shared room identifier of two users.
// Ids are sorted lexicographically before joining, so the key is
// commutative: RoomKey(a, b) == RoomKey(b, a). Rooms are never stored,
// only recomputed on demand.
func RoomKey(idA, idB string) string {
	ids := []string{idA, idB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
