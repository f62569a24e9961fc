package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chessbroker/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// Test: Complete game flow from challenge to checkmate
func (s *IntegrationSuite) TestCompleteGameFlow() {
	s.app.MockRandom.QueueString("GAME00000001")

	alice := model.Identity("alice@example.com")
	bob := model.Identity("bob@example.com")

	// Step 1: Alice creates a game
	created, err := s.app.SessionController.Create(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(model.SessionID("GAME00000001"), created.ID)
	s.Equal(model.StatusWaiting, created.Status)

	// Step 2: Bob joins and the game activates
	joined, err := s.app.SessionController.Join(s.ctx, created.ID, bob)
	s.Require().NoError(err)
	s.Equal(model.StatusActive, joined.Status)

	// Step 3: Play scholar's mate
	moves := []struct {
		who model.Identity
		mv  model.Move
	}{
		{alice, model.Move{From: "e2", To: "e4"}},
		{bob, model.Move{From: "e7", To: "e5"}},
		{alice, model.Move{From: "f1", To: "c4"}},
		{bob, model.Move{From: "b8", To: "c6"}},
		{alice, model.Move{From: "d1", To: "h5"}},
		{bob, model.Move{From: "g8", To: "f6"}},
		{alice, model.Move{From: "h5", To: "f7"}},
	}

	var outcome *model.Outcome
	for _, step := range moves {
		_, _, outcome, err = s.app.SessionController.Move(s.ctx, created.ID, step.who, step.mv)
		s.Require().NoError(err)
	}

	// Step 4: White wins by checkmate and the session is gone
	s.Require().NotNil(outcome)
	s.Equal(model.EndReasonCheckmate, outcome.Reason)
	s.Equal(model.ColorWhite, outcome.Winner)

	_, err = s.app.SessionController.Get(s.ctx, created.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Test: Disconnect sweeps every session the identity is part of
func (s *IntegrationSuite) TestDisconnectFlow() {
	s.app.MockRandom.QueueString("GAME00000001", "GAME00000002")

	alice := model.Identity("alice@example.com")
	bob := model.Identity("bob@example.com")
	carol := model.Identity("carol@example.com")

	first, err := s.app.SessionController.Create(s.ctx, alice)
	s.Require().NoError(err)
	_, err = s.app.SessionController.Join(s.ctx, first.ID, bob)
	s.Require().NoError(err)

	second, err := s.app.SessionController.Create(s.ctx, alice)
	s.Require().NoError(err)
	_, err = s.app.SessionController.Join(s.ctx, second.ID, carol)
	s.Require().NoError(err)

	ended, err := s.app.SessionController.Disconnect(s.ctx, alice)
	s.Require().NoError(err)
	s.Len(ended, 2)

	for _, id := range []model.SessionID{first.ID, second.ID} {
		_, err := s.app.SessionController.Get(s.ctx, id)
		s.ErrorIs(err, model.ErrSessionNotFound)
	}
}
