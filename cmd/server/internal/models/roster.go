package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrNoParticipants = errors.New("competition has no eligible participants")

type RosterJudge struct {
	ID       uuid.UUID
	Capacity *int
}

// Roster is a point-in-time snapshot of who gets distributed to whom.
// Participants are ordered by score descending, id ascending on ties, and
// judges by id ascending, so repeated snapshots of unchanged data produce
// identical distributions.
type Roster struct {
	Participants []uuid.UUID
	Judges       []RosterJudge
}

// LoadRoster reads the top scoring participants and the judge list for a
// competition in one consistent pass.
func LoadRoster(
	ctx context.Context,
	db *gorm.DB,
	competitionID uuid.UUID,
	topN int,
) (*Roster, error) {
	ctx, span := tracer.Start(ctx, "LoadRoster")
	defer span.End()

	span.SetAttributes(
		attribute.String("competition.id", competitionID.String()),
		attribute.Int("top_n", topN),
	)

	roster := Roster{}

	span.AddEvent("loading roster")
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var participants []Participant
		err := db.WithContext(gctx).
			Where("competition_id = ?", competitionID).
			Order("score DESC, id ASC").
			Limit(topN).
			Find(&participants).
			Error
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}

		roster.Participants = make([]uuid.UUID, 0, len(participants))
		for _, participant := range participants {
			roster.Participants = append(roster.Participants, participant.ID)
		}

		return nil
	})

	g.Go(func() error {
		var judges []Judge
		err := db.WithContext(gctx).
			Order("id ASC").
			Find(&judges).
			Error
		if err != nil {
			return fmt.Errorf("failed to load judges: %w", err)
		}

		roster.Judges = make([]RosterJudge, 0, len(judges))
		for _, judge := range judges {
			roster.Judges = append(roster.Judges, RosterJudge{
				ID:       judge.ID,
				Capacity: PtrFromNull(judge.Capacity),
			})
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load roster")
		return nil, err
	}

	if len(roster.Participants) == 0 {
		span.AddEvent("no eligible participants")
		return nil, ErrNoParticipants
	}

	return &roster, nil
}
