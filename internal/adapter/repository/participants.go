package repository

import (
	"sort"

	"taskmeet/internal/domain/entity"
)

// normalizeParticipants returns a sorted copy of ids with blanks and duplicates removed.
func normalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sameParticipants(a, b []string) bool {
	na, nb := normalizeParticipants(a), normalizeParticipants(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// oldestExactMatch picks the earliest created session whose participant set
// equals wanted. Ties keep the first candidate.
func oldestExactMatch(candidates []*entity.ChatSession, wanted []string) *entity.ChatSession {
	var oldest *entity.ChatSession
	for _, s := range candidates {
		if !sameParticipants(s.Participants, wanted) {
			continue
		}
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}
	return oldest
}

func paginate(total, limit, offset int) (int, int) {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if limit > 0 && start+limit < total {
		end = start + limit
	}
	return start, end
}
