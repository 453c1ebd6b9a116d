package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/services"
	"github.com/vytor/puzzlereplay/internal/testutil/mocks"
)

type ReplayServiceSuite struct {
	suite.Suite
	replays *mocks.MockReplayRepository
	actions *mocks.MockActionRepository
	svc     services.ReplayService
}

func (s *ReplayServiceSuite) SetupTest() {
	s.replays = new(mocks.MockReplayRepository)
	s.actions = new(mocks.MockActionRepository)
	compression := services.NewCompressionService(s.replays, s.actions)
	s.svc = services.NewReplayService(s.replays, s.actions, compression)
}

func (s *ReplayServiceSuite) TestCreateReplay_Defaults() {
	ctx := context.Background()

	var inserted models.Replay
	s.replays.On("Insert", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { inserted = args.Get(1).(models.Replay) }).
		Return(nil)

	replay, err := s.svc.CreateReplay(ctx, "user-1", models.CreateReplayRequest{
		PuzzleID:    "puzzle-1",
		PuzzleTitle: "Test Puzzle",
	})
	s.Require().NoError(err)
	s.Require().NotNil(replay)

	s.Assert().NotEmpty(inserted.ID)
	s.Assert().Equal("user-1", inserted.UserID)
	s.Assert().Equal(models.PermissionPrivate, inserted.Permission)
	s.Assert().Equal(models.ArchiveStatusActive, inserted.ArchiveStatus)
	s.Assert().NotNil(inserted.InitialState)
	s.Assert().False(inserted.IsCompleted)
	s.Assert().Zero(inserted.MovesCount)
}

func (s *ReplayServiceSuite) TestCreateReplay_MissingPuzzleID() {
	_, err := s.svc.CreateReplay(context.Background(), "user-1", models.CreateReplayRequest{})
	s.Require().Error(err)
	appErr := err.(*errors.AppError)
	s.Assert().Equal(errors.ErrCodeValidation, appErr.Code)
}

func (s *ReplayServiceSuite) TestRecordAction_UnknownType() {
	_, err := s.svc.RecordAction(context.Background(), "replay-1", models.RecordActionRequest{
		ActionType: "TELEPORT",
	})
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeValidation, err.(*errors.AppError).Code)
}

func (s *ReplayServiceSuite) TestRecordAction_CompletedReplayRejected() {
	ctx := context.Background()
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:          "replay-1",
		IsCompleted: true,
	}, nil)

	_, err := s.svc.RecordAction(ctx, "replay-1", models.RecordActionRequest{
		ActionType: models.ActionMove,
	})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidState(err))
}

func (s *ReplayServiceSuite) TestRecordAction_NotFound() {
	s.replays.On("Get", mock.Anything, "missing").Return(nil, nil)

	_, err := s.svc.RecordAction(context.Background(), "missing", models.RecordActionRequest{
		ActionType: models.ActionMove,
	})
	s.Require().Error(err)
	s.Assert().True(errors.IsNotFound(err))
}

func (s *ReplayServiceSuite) TestRecordAction_IncrementsCounters() {
	ctx := context.Background()
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{ID: "replay-1"}, nil)
	s.actions.On("Append", mock.Anything, mock.AnythingOfType("models.Action")).
		Return(&models.Action{ID: "a-1", ReplayID: "replay-1", SequenceNumber: 0}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	action, err := s.svc.RecordAction(ctx, "replay-1", models.RecordActionRequest{
		ActionType: models.ActionHintUsed,
		Timestamp:  150,
	})
	s.Require().NoError(err)
	s.Assert().Equal(0, action.SequenceNumber)

	s.Assert().Equal(1, updated.MovesCount)
	s.Assert().Equal(1, updated.HintsUsed)
	s.Assert().Zero(updated.UndosCount)
	s.Require().NotNil(updated.LastViewedAt)
}

func (s *ReplayServiceSuite) TestRecordAction_PauseAccumulatesPausedTime() {
	ctx := context.Background()
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{ID: "replay-1", PausedTime: 500}, nil)
	s.actions.On("Append", mock.Anything, mock.AnythingOfType("models.Action")).
		Return(&models.Action{ID: "a-1"}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	_, err := s.svc.RecordAction(ctx, "replay-1", models.RecordActionRequest{
		ActionType: models.ActionPause,
		Metadata:   &models.ActionMetadata{Duration: 1500},
	})
	s.Require().NoError(err)
	s.Assert().Equal(int64(2000), updated.PausedTime)
}

func (s *ReplayServiceSuite) TestCompleteReplay_Efficiency() {
	ctx := context.Background()
	score := 80.0
	max := 100.0

	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:         "replay-1",
		MovesCount: 3,
	}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	replay, err := s.svc.CompleteReplay(ctx, "replay-1", models.CompleteReplayRequest{
		IsSolved:         true,
		TotalDuration:    5000,
		ScoreEarned:      &score,
		MaxScorePossible: &max,
	})
	s.Require().NoError(err)

	s.Assert().True(replay.IsCompleted)
	s.Assert().True(replay.IsSolved)
	s.Assert().Equal(80.0, replay.Efficiency)
	s.Assert().Equal(3, replay.MovesCount)
	// ActiveTime defaults to TotalDuration when the caller omits it.
	s.Assert().Equal(int64(5000), updated.ActiveTime)
	s.Require().NotNil(updated.CompletedAt)
}

func (s *ReplayServiceSuite) TestCompleteReplay_NoScoreZeroEfficiency() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{ID: "replay-1"}, nil)
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).Return(nil)

	replay, err := s.svc.CompleteReplay(context.Background(), "replay-1", models.CompleteReplayRequest{
		IsSolved:      false,
		TotalDuration: 1000,
	})
	s.Require().NoError(err)
	s.Assert().Zero(replay.Efficiency)
}

func (s *ReplayServiceSuite) TestCompleteReplay_AlreadyCompleted() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:          "replay-1",
		IsCompleted: true,
	}, nil)

	_, err := s.svc.CompleteReplay(context.Background(), "replay-1", models.CompleteReplayRequest{})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidState(err))
}

func (s *ReplayServiceSuite) TestShareReplay_SharedLinkGeneratesCode() {
	ctx := context.Background()
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:     "replay-1",
		UserID: "owner",
	}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	expiry := time.Now().UTC().Add(24 * time.Hour)
	replay, err := s.svc.ShareReplay(ctx, "replay-1", "owner", models.ShareReplayRequest{
		Permission:     models.PermissionSharedLink,
		ShareExpiredAt: &expiry,
	})
	s.Require().NoError(err)

	s.Assert().Equal(models.PermissionSharedLink, replay.Permission)
	s.Assert().NotEmpty(replay.ShareCode)
	s.Assert().Equal(replay.ShareCode, updated.ShareCode)
	s.Require().NotNil(updated.ShareExpiredAt)
}

func (s *ReplayServiceSuite) TestShareReplay_PublicClearsCode() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:        "replay-1",
		UserID:    "owner",
		ShareCode: "old-code",
	}, nil)
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).Return(nil)

	replay, err := s.svc.ShareReplay(context.Background(), "replay-1", "owner", models.ShareReplayRequest{
		Permission: models.PermissionPublic,
	})
	s.Require().NoError(err)
	s.Assert().Empty(replay.ShareCode)
}

func (s *ReplayServiceSuite) TestShareReplay_NonOwnerForbidden() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:     "replay-1",
		UserID: "owner",
	}, nil)

	_, err := s.svc.ShareReplay(context.Background(), "replay-1", "intruder", models.ShareReplayRequest{
		Permission: models.PermissionPublic,
	})
	s.Require().Error(err)
	s.Assert().True(errors.IsForbidden(err))
}

func (s *ReplayServiceSuite) TestGetSharedReplay_CountsView() {
	s.replays.On("GetByShareCode", mock.Anything, "code").Return(&models.Replay{
		ID:         "replay-1",
		Permission: models.PermissionSharedLink,
		ShareCode:  "code",
		ViewCount:  4,
	}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	replay, err := s.svc.GetSharedReplay(context.Background(), "code")
	s.Require().NoError(err)
	s.Assert().Equal(5, replay.ViewCount)
	s.Assert().Equal(5, updated.ViewCount)
	s.Require().NotNil(updated.LastViewedAt)
}

func (s *ReplayServiceSuite) TestGetSharedReplay_Expired() {
	past := time.Now().UTC().Add(-time.Hour)
	s.replays.On("GetByShareCode", mock.Anything, "code").Return(&models.Replay{
		ID:             "replay-1",
		Permission:     models.PermissionSharedLink,
		ShareExpiredAt: &past,
	}, nil)

	_, err := s.svc.GetSharedReplay(context.Background(), "code")
	s.Require().Error(err)
	s.Assert().True(errors.IsExpired(err))
}

func (s *ReplayServiceSuite) TestGetSharedReplay_RevokedToPrivate() {
	s.replays.On("GetByShareCode", mock.Anything, "code").Return(&models.Replay{
		ID:         "replay-1",
		Permission: models.PermissionPrivate,
	}, nil)

	_, err := s.svc.GetSharedReplay(context.Background(), "code")
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidState(err))
}

func (s *ReplayServiceSuite) TestDeleteReplay_SoftDelete() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:     "replay-1",
		UserID: "owner",
	}, nil)

	var updated models.Replay
	s.replays.On("Update", mock.Anything, mock.AnythingOfType("models.Replay")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(models.Replay) }).
		Return(nil)

	err := s.svc.DeleteReplay(context.Background(), "replay-1", "owner")
	s.Require().NoError(err)
	s.Assert().Equal(models.ArchiveStatusDeleted, updated.ArchiveStatus)
}

func (s *ReplayServiceSuite) TestDeleteReplay_NonOwnerForbidden() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:     "replay-1",
		UserID: "owner",
	}, nil)

	err := s.svc.DeleteReplay(context.Background(), "replay-1", "intruder")
	s.Require().Error(err)
	s.Assert().True(errors.IsForbidden(err))
}

func (s *ReplayServiceSuite) TestGetPlayback_UncompressedPassThrough() {
	s.replays.On("Get", mock.Anything, "replay-1").Return(&models.Replay{
		ID:          "replay-1",
		UserID:      "owner",
		PuzzleTitle: "Test Puzzle",
	}, nil)
	s.actions.On("ListByReplay", mock.Anything, "replay-1").Return([]models.Action{
		{ID: "a-0", SequenceNumber: 0, ActionType: models.ActionMove},
		{ID: "a-1", SequenceNumber: 1, ActionType: models.ActionSubmission},
	}, nil)

	playback, err := s.svc.GetPlayback(context.Background(), "replay-1")
	s.Require().NoError(err)
	s.Assert().Equal("Test Puzzle", playback.Metadata.PuzzleTitle)
	s.Assert().Equal(2, playback.TotalActions)
	s.Assert().Len(playback.Actions, 2)
}

func TestReplayServiceSuite(t *testing.T) {
	suite.Run(t, new(ReplayServiceSuite))
}
