package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/etlonline/prompt-competition/assignment-service/internal/logger"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

type Context struct {
	JudgeID       *string
	ParticipantID *string
	CompetitionID string
}

func (c Context) message(evt EventType, disp Disposition) Message {
	return Message{
		JudgeID:       c.JudgeID,
		ParticipantID: c.ParticipantID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		CompetitionID: c.CompetitionID,
		Disposition:   disp,
		Type:          evt,
		Timestamp:     types.UnixMilli(time.Now().UTC().UnixMilli()),
	}
}

func emit(event any, kind EventType) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "type", kind)
		return
	}

	// TODO: should this go to stderr?
	fmt.Println(string(evtStr))
}

func LogFileArchived(
	c Context,
	bucketName string,
	objectName string,
	fileArchived types.ArchivedFile,
	fileArchivedEntity FileArchivedEntity,
	entityID string,
) {
	event := FileArchived{}
	event.Message = c.message(EvtFileArchived, DispositionNeutral)

	event.Event.BucketName = bucketName
	event.Event.ObjectName = objectName
	event.Event.FileArchived = fileArchived
	event.Event.Entity = fileArchivedEntity
	event.Event.EntityID = entityID

	emit(event, EvtFileArchived)
}

func LogDistributionRun(
	c Context,
	runID string,
	strategy types.Strategy,
	topN int,
	assignedCount int,
	judgeIDs []string,
) {
	disp := DispositionGood
	unassigned := topN - assignedCount
	if unassigned > 0 {
		// weighted shortfall, the administrator should notice
		disp = DispositionBad
	}

	event := DistributionRun{}
	event.Message = c.message(EvtDistributionRun, disp)

	event.Event.RunID = runID
	event.Event.Strategy = strategy
	event.Event.TopN = topN
	event.Event.AssignedCount = assignedCount
	event.Event.UnassignedCount = unassigned
	event.Event.JudgeIDs = judgeIDs

	emit(event, EvtDistributionRun)
}

func LogScoreSubmitted(c Context, submissionID string, score int) {
	event := ScoreSubmitted{}
	event.Message = c.message(EvtScoreSubmitted, DispositionNeutral)

	event.Event.SubmissionID = submissionID
	event.Event.Score = score

	emit(event, EvtScoreSubmitted)
}

func LogParticipantLocked(c Context, submissionsCompleted int) {
	event := ParticipantLocked{}
	event.Message = c.message(EvtParticipantLocked, DispositionNeutral)

	event.Event.SubmissionsCompleted = submissionsCompleted

	emit(event, EvtParticipantLocked)
}

func LogSubmissionReceived(c Context, submissionID, challengeID, recordingPath string) {
	event := SubmissionReceived{}
	event.Message = c.message(EvtSubmissionReceived, DispositionNeutral)

	event.Event.SubmissionID = submissionID
	event.Event.ChallengeID = challengeID
	event.Event.RecordingPath = recordingPath

	emit(event, EvtSubmissionReceived)
}
