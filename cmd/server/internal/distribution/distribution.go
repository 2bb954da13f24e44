// Package distribution partitions an ordered participant list across a judge
// pool. The functions are pure: identical inputs always produce identical
// output, so re-running a distribution reproduces the same assignment set.
package distribution

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoJudges   = errors.New("no judges available")
	ErrNoCapacity = errors.New("no capacity available")
)

// CapacityShortfallError is returned by the weighted strategy under the
// reject policy when the judge pool cannot absorb every participant.
type CapacityShortfallError struct {
	Capacity     int
	Participants int
}

func (e *CapacityShortfallError) Error() string {
	return fmt.Sprintf(
		"declared capacity %d cannot cover %d participants",
		e.Capacity,
		e.Participants,
	)
}

// JudgeCapacity is a judge with a resolved capacity. Order matters: the
// weighted strategy fills judges in slice order.
type JudgeCapacity struct {
	ID       uuid.UUID
	Capacity int
}

// JudgeAssignment is one judge's slice of the participant list, in the
// participants' input order. Judges that received nobody do not appear.
type JudgeAssignment struct {
	JudgeID      uuid.UUID
	Participants []uuid.UUID
}

// RoundRobin deals participants out cyclically. Participant i goes to judge
// i mod len(judges), which keeps every judge within one participant of every
// other and preserves participant order within each judge's list.
func RoundRobin(participants []uuid.UUID, judges []uuid.UUID) ([]JudgeAssignment, error) {
	if len(judges) == 0 {
		return nil, ErrNoJudges
	}

	buckets := make([][]uuid.UUID, len(judges))
	for i, participant := range participants {
		j := i % len(judges)
		buckets[j] = append(buckets[j], participant)
	}

	assignments := make([]JudgeAssignment, 0, len(judges))
	for i, judge := range judges {
		if len(buckets[i]) == 0 {
			continue
		}

		assignments = append(assignments, JudgeAssignment{
			JudgeID:      judge,
			Participants: buckets[i],
		})
	}

	return assignments, nil
}

// Weighted fills judges first fit in slice order: each judge takes up to its
// capacity from the front of the remaining participant list before the cursor
// moves on. Judges with capacity <= 0 are skipped. When total capacity falls
// short of the participant count the tail is either truncated (reported via
// the unassigned return) or the whole run fails, depending on reject.
func Weighted(
	participants []uuid.UUID,
	judges []JudgeCapacity,
	reject bool,
) ([]JudgeAssignment, int, error) {
	total := 0
	for _, judge := range judges {
		if judge.Capacity > 0 {
			total += judge.Capacity
		}
	}

	if total <= 0 {
		return nil, 0, ErrNoCapacity
	}

	if reject && total < len(participants) {
		return nil, 0, &CapacityShortfallError{
			Capacity:     total,
			Participants: len(participants),
		}
	}

	assignments := make([]JudgeAssignment, 0, len(judges))
	cursor := 0
	for _, judge := range judges {
		if judge.Capacity <= 0 {
			continue
		}

		remaining := len(participants) - cursor
		if remaining == 0 {
			break
		}

		take := min(judge.Capacity, remaining)
		assignments = append(assignments, JudgeAssignment{
			JudgeID:      judge.ID,
			Participants: participants[cursor : cursor+take],
		})
		cursor += take
	}

	return assignments, len(participants) - cursor, nil
}
