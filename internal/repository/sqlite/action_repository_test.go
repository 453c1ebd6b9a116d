package sqlite_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
	"github.com/vytor/puzzlereplay/internal/repository/sqlite"
	"github.com/vytor/puzzlereplay/internal/testutil"
)

type ActionRepositorySuite struct {
	suite.Suite
	db      *sql.DB
	replays repository.ReplayRepository
	repo    repository.ActionRepository
}

func (s *ActionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.replays = sqlite.NewReplayRepository(s.db)
	s.repo = sqlite.NewActionRepository(s.db)

	s.Require().NoError(s.replays.Insert(context.Background(), models.Replay{
		ID:            "r-1",
		UserID:        "u-1",
		PuzzleID:      "p-1",
		InitialState:  models.State{},
		Permission:    models.PermissionPrivate,
		ArchiveStatus: models.ArchiveStatusActive,
		CreatedAt:     time.Now().UTC(),
	}))
}

func (s *ActionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ActionRepositorySuite) newAction(actionType string) models.Action {
	return models.Action{
		ID:         uuid.NewString(),
		ReplayID:   "r-1",
		ActionType: actionType,
		Timestamp:  100,
		ActionData: models.State{"move": "e4"},
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *ActionRepositorySuite) TestAppend_AssignsContiguousSequence() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		stored, err := s.repo.Append(ctx, s.newAction(models.ActionMove))
		s.Require().NoError(err)
		s.Assert().Equal(i, stored.SequenceNumber)
	}

	actions, err := s.repo.ListByReplay(ctx, "r-1")
	s.Require().NoError(err)
	s.Require().Len(actions, 5)
	for i, a := range actions {
		s.Assert().Equal(i, a.SequenceNumber)
	}
}

func (s *ActionRepositorySuite) TestAppend_ConcurrentRecorders() {
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.Append(ctx, s.newAction(models.ActionMove))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	actions, err := s.repo.ListByReplay(ctx, "r-1")
	s.Require().NoError(err)
	s.Require().Len(actions, 10)
	for i, a := range actions {
		s.Assert().Equal(i, a.SequenceNumber)
	}
}

func (s *ActionRepositorySuite) TestAppend_RoundTripsPayload() {
	ctx := context.Background()

	action := s.newAction(models.ActionHintUsed)
	action.StateBefore = models.State{"board": "a"}
	action.StateAfter = models.State{"board": "b", "score": float64(10)}
	action.Metadata = &models.ActionMetadata{Duration: 2000, Notes: "stuck"}

	stored, err := s.repo.Append(ctx, action)
	s.Require().NoError(err)

	actions, err := s.repo.ListByReplay(ctx, "r-1")
	s.Require().NoError(err)
	s.Require().Len(actions, 1)

	got := actions[0]
	s.Assert().Equal(stored.ID, got.ID)
	s.Assert().Equal(models.State{"board": "a"}, got.StateBefore)
	s.Assert().Equal(models.State{"board": "b", "score": float64(10)}, got.StateAfter)
	s.Require().NotNil(got.Metadata)
	s.Assert().Equal(int64(2000), got.Metadata.Duration)
	s.Assert().Equal("stuck", got.Metadata.Notes)
}

func (s *ActionRepositorySuite) TestApplyCompression_RewritesAndFlags() {
	ctx := context.Background()

	a1, err := s.repo.Append(ctx, s.newAction(models.ActionMove))
	s.Require().NoError(err)
	a2, err := s.repo.Append(ctx, s.newAction(models.ActionMove))
	s.Require().NoError(err)

	err = s.repo.ApplyCompression(ctx, "r-1", []models.StateRewrite{
		{ActionID: a1.ID, StateAfter: models.State{"board": "x"}},
		{ActionID: a2.ID, StateAfter: models.State{"score": float64(1)}},
	})
	s.Require().NoError(err)

	actions, err := s.repo.ListByReplay(ctx, "r-1")
	s.Require().NoError(err)
	s.Assert().Equal(models.State{"board": "x"}, actions[0].StateAfter)
	s.Assert().Equal(models.State{"score": float64(1)}, actions[1].StateAfter)

	replay, err := s.replays.Get(ctx, "r-1")
	s.Require().NoError(err)
	s.Assert().True(replay.IsCompressed)
}

func (s *ActionRepositorySuite) TestListByReplay_Empty() {
	actions, err := s.repo.ListByReplay(context.Background(), "r-1")
	s.Require().NoError(err)
	s.Assert().Empty(actions)
}

func TestActionRepositorySuite(t *testing.T) {
	suite.Run(t, new(ActionRepositorySuite))
}
