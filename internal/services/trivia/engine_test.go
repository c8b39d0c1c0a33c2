package trivia

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyrooms/internal/dependencies/mocks"
	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/scoring"
	"github.com/mcoot/partyrooms/internal/storage/memory"
	"github.com/mcoot/partyrooms/internal/testutil"
)

// stubSource returns a fixed set of questions, or an error
type stubSource struct {
	questions []model.TriviaQuestion
	err       error
	calls     int
}

func (s *stubSource) GetQuestions(ctx context.Context, amount int, difficulty string) ([]model.TriviaQuestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions[:min(amount, len(s.questions))], nil
}

func makeQuestions(n int) []model.TriviaQuestion {
	qs := make([]model.TriviaQuestion, n)
	for i := range qs {
		qs[i] = model.TriviaQuestion{
			ID:            fmt.Sprintf("q%d", i+1),
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"right", "wrong", "other", "nope"},
			CorrectAnswer: "right",
			TimeLimit:     30,
		}
	}
	return qs
}

type EngineSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	source  *stubSource
	engine  *Engine
	ctx     context.Context
	room    *model.Room
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.source = &stubSource{questions: makeQuestions(3)}
	s.engine = NewEngine(s.storage, s.source, scoring.New(), s.clock, Config{ClampToServerTime: true}, testutil.NopLogger())
	s.ctx = context.Background()

	s.room = &model.Room{
		ID:            "room-1",
		Code:          "ABC234",
		MaxPlayers:    6,
		MinigameCount: 3,
		IsActive:      true,
		State:         model.TriviaStateWaiting,
		Players: []model.Player{
			{ID: "ana", Name: "Ana", IsHost: true, IsOnline: true, ConnectionID: "c1"},
			{ID: "luis", Name: "Luis", IsOnline: true, ConnectionID: "c2"},
			{ID: "tv", Name: "TV", IsTV: true, IsOnline: true, ConnectionID: "c3"},
			{ID: "spec", Name: "Spec", IsSpectator: true, IsOnline: true, ConnectionID: "c4"},
			{ID: "gone", Name: "Gone", IsOnline: false},
		},
		HostID: "ana",
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room))
}

func (s *EngineSuite) start() *model.TriviaQuestion {
	_, q, err := s.engine.StartTrivia(s.ctx, s.room.ID)
	s.Require().NoError(err)
	return q
}

func (s *EngineSuite) answer(player model.PlayerID, questionID, selected string, timeUsed float64) (*AnswerResult, error) {
	return s.engine.SubmitAnswer(s.ctx, s.room.ID, player, model.AnswerSubmission{
		QuestionID:     questionID,
		SelectedAnswer: selected,
		TimeUsed:       timeUsed,
	})
}

func (s *EngineSuite) stored() *model.Room {
	room, err := s.storage.GetRoom(s.ctx, s.room.ID)
	s.Require().NoError(err)
	return room
}

// StartTrivia tests

func (s *EngineSuite) TestStartTriviaOpensFirstQuestion() {
	room, q, err := s.engine.StartTrivia(s.ctx, s.room.ID)
	s.Require().NoError(err)

	s.Equal("q1", q.ID)
	s.Equal(model.TriviaStateQuestionActive, room.State)
	s.Equal(s.clock.Now(), room.Trivia.QuestionStartTime)
	s.Len(room.Trivia.Questions, 3)
	s.Equal(1, s.source.calls)
}

func (s *EngineSuite) TestStartTriviaScoresOnlyOnlineCompetitors() {
	s.start()

	scores := s.stored().Trivia.Scores
	s.Len(scores, 2)
	s.Contains(scores, model.PlayerID("ana"))
	s.Contains(scores, model.PlayerID("luis"))
	s.Equal("Ana", scores["ana"].PlayerName)
}

func (s *EngineSuite) TestStartTriviaRejectsWhileActive() {
	s.start()

	_, _, err := s.engine.StartTrivia(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrTriviaInProgress)

	_, err = s.engine.PrepareTrivia(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrTriviaInProgress)
}

func (s *EngineSuite) TestPrepareTriviaRejectsSecondStartWhileLoading() {
	room, err := s.engine.PrepareTrivia(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal(model.TriviaStateActive, room.State)

	_, err = s.engine.PrepareTrivia(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrTriviaInProgress)
}

func (s *EngineSuite) TestStartTriviaSourceFailureResets() {
	s.source.err = errors.New("no questions")

	_, _, err := s.engine.StartTrivia(s.ctx, s.room.ID)
	s.Error(err)

	room := s.stored()
	s.Equal(model.TriviaStateWaiting, room.State)
	s.Nil(room.Trivia)
}

func (s *EngineSuite) TestActivateWithNoQuestionsResets() {
	_, err := s.engine.PrepareTrivia(s.ctx, s.room.ID)
	s.Require().NoError(err)

	_, _, err = s.engine.ActivateTrivia(s.ctx, s.room.ID, nil)
	s.ErrorIs(err, model.ErrNoQuestions)
	s.Equal(model.TriviaStateWaiting, s.stored().State)
}

func (s *EngineSuite) TestActivateRequiresPreparedRoom() {
	_, _, err := s.engine.ActivateTrivia(s.ctx, s.room.ID, makeQuestions(1))
	s.ErrorIs(err, model.ErrInvalidTriviaState)
}

func (s *EngineSuite) TestStartTriviaMissingRoom() {
	_, _, err := s.engine.StartTrivia(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// SubmitAnswer tests

func (s *EngineSuite) TestInstantCorrectAnswerScores150() {
	q := s.start()

	result, err := s.answer("ana", q.ID, "right", 0)
	s.Require().NoError(err)
	s.True(result.Answer.IsCorrect)
	s.Equal(150, result.Answer.Points)
	s.Equal(150, s.stored().Trivia.Scores["ana"].Score)
}

func (s *EngineSuite) TestWrongAnswerScoresZero() {
	q := s.start()
	s.clock.Advance(5 * time.Second)

	result, err := s.answer("ana", q.ID, "wrong", 1)
	s.Require().NoError(err)
	s.False(result.Answer.IsCorrect)
	s.Equal(0, result.Answer.Points)

	ps := s.stored().Trivia.Scores["ana"]
	s.Equal(1, ps.TotalAnswers)
	s.Equal(0, ps.CorrectAnswers)
}

func (s *EngineSuite) TestAnswerAtTimeLimitScores100() {
	q := s.start()
	s.clock.Advance(30 * time.Second)

	result, err := s.answer("ana", q.ID, "right", 30)
	s.Require().NoError(err)
	s.Equal(100, result.Answer.Points)
}

func (s *EngineSuite) TestReportedTimeIsClampedToServerElapsed() {
	q := s.start()
	s.clock.Advance(10 * time.Second)

	result, err := s.answer("ana", q.ID, "right", 25)
	s.Require().NoError(err)
	s.Equal(10.0, result.Answer.TimeUsed)
	s.Equal(133, result.Answer.Points)
}

func (s *EngineSuite) TestClientTimeTrustedWhenServerClampDisabled() {
	s.engine = NewEngine(s.storage, s.source, scoring.New(), s.clock, Config{}, testutil.NopLogger())
	q := s.start()

	result, err := s.answer("ana", q.ID, "right", 15)
	s.Require().NoError(err)
	s.Equal(15.0, result.Answer.TimeUsed)
	s.Equal(125, result.Answer.Points)
}

func (s *EngineSuite) TestSecondAnswerIsRejected() {
	q := s.start()
	s.clock.Advance(2 * time.Second)

	_, err := s.answer("ana", q.ID, "wrong", 1)
	s.Require().NoError(err)

	_, err = s.answer("ana", q.ID, "right", 1)
	s.ErrorIs(err, model.ErrAlreadyAnswered)

	room := s.stored()
	s.False(room.Trivia.Answers["ana"].IsCorrect)
	s.Equal(0, room.Trivia.Scores["ana"].Score)
	s.Equal(1, room.Trivia.Scores["ana"].TotalAnswers)
}

func (s *EngineSuite) TestAnswerForStaleQuestionIsRejected() {
	s.start()

	_, err := s.answer("ana", "q2", "right", 0)
	s.ErrorIs(err, model.ErrQuestionMismatch)
}

func (s *EngineSuite) TestAnswerOutsideQuestionActiveIsRejected() {
	_, err := s.answer("ana", "q1", "right", 0)
	s.ErrorIs(err, model.ErrInvalidTriviaState)

	q := s.start()
	_, err = s.engine.EndQuestion(s.ctx, s.room.ID)
	s.Require().NoError(err)

	_, err = s.answer("ana", q.ID, "right", 0)
	s.ErrorIs(err, model.ErrInvalidTriviaState)
}

func (s *EngineSuite) TestSpectatorsAndTVCannotAnswer() {
	q := s.start()

	_, err := s.answer("tv", q.ID, "right", 0)
	s.ErrorIs(err, model.ErrNotScoredPlayer)
	_, err = s.answer("spec", q.ID, "right", 0)
	s.ErrorIs(err, model.ErrNotScoredPlayer)
}

// AllAnswered tests

func (s *EngineSuite) TestAllAnsweredAfterEveryCompetitorAnswers() {
	q := s.start()

	result, err := s.answer("ana", q.ID, "right", 0)
	s.Require().NoError(err)
	s.False(result.AllAnswered)

	done, err := s.engine.AllAnswered(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.False(done)

	result, err = s.answer("luis", q.ID, "wrong", 0)
	s.Require().NoError(err)
	s.True(result.AllAnswered)

	done, err = s.engine.AllAnswered(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.True(done)
}

func (s *EngineSuite) TestOfflineCompetitorDoesNotBlockAllAnswered() {
	q := s.start()

	room := s.stored()
	room.GetPlayer("luis").IsOnline = false
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	result, err := s.answer("ana", q.ID, "right", 0)
	s.Require().NoError(err)
	s.True(result.AllAnswered)
}

// NextQuestion tests

func (s *EngineSuite) TestRoundProgressionEndsAfterNCalls() {
	s.start()

	for i := 1; i <= 3; i++ {
		result, err := s.engine.NextQuestion(s.ctx, s.room.ID)
		s.Require().NoError(err)
		if i < 3 {
			s.False(result.TriviaEnded)
			s.Require().NotNil(result.Question)
			s.Equal(fmt.Sprintf("q%d", i+1), result.Question.ID)
			s.Equal(i, result.QuestionIndex)
		} else {
			s.True(result.TriviaEnded)
			s.Nil(result.Question)
		}
	}

	room := s.stored()
	s.Equal(model.TriviaStateEnded, room.State)
	s.Nil(room.Trivia.CurrentQuestion())
	s.Empty(room.Trivia.Questions)
	s.Empty(room.Trivia.Answers)

	q, err := s.engine.CurrentQuestion(s.ctx, s.room.ID)
	s.NoError(err)
	s.Nil(q)
}

func (s *EngineSuite) TestNextQuestionResetsAnswersAndStartTime() {
	q := s.start()
	s.clock.Advance(3 * time.Second)
	_, _ = s.answer("ana", q.ID, "right", 2)

	s.clock.Advance(5 * time.Second)
	result, err := s.engine.NextQuestion(s.ctx, s.room.ID)
	s.Require().NoError(err)

	room := s.stored()
	s.Empty(room.Trivia.Answers)
	s.Equal(s.clock.Now(), room.Trivia.QuestionStartTime)
	s.Equal(model.TriviaStateQuestionActive, room.State)

	_, err = s.answer("ana", result.Question.ID, "right", 0)
	s.NoError(err)
}

func (s *EngineSuite) TestNextQuestionIsNoopOutsideRound() {
	_, err := s.engine.NextQuestion(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrInvalidTriviaState)

	_, err = s.engine.PrepareTrivia(s.ctx, s.room.ID)
	s.Require().NoError(err)
	_, err = s.engine.NextQuestion(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrInvalidTriviaState)
}

func (s *EngineSuite) TestNextQuestionAfterEndQuestion() {
	s.start()

	ended, err := s.engine.EndQuestion(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal("right", ended.CorrectAnswer)
	s.False(ended.IsLast)
	s.Equal(model.TriviaStateQuestionEnded, s.stored().State)

	// A second close is a no-op
	_, err = s.engine.EndQuestion(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrInvalidTriviaState)

	result, err := s.engine.NextQuestion(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Equal("q2", result.Question.ID)
}

func (s *EngineSuite) TestNextQuestionAfterSessionEndIsRejected() {
	s.source.questions = makeQuestions(1)
	s.start()

	result, err := s.engine.NextQuestion(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.True(result.TriviaEnded)

	_, err = s.engine.NextQuestion(s.ctx, s.room.ID)
	s.ErrorIs(err, model.ErrInvalidTriviaState)
}

// Ranking tests

func (s *EngineSuite) TestRankingTieBrokenByAverageTime() {
	q := s.start()
	s.clock.Advance(20 * time.Second)

	_, _ = s.answer("luis", q.ID, "right", 5.5)
	_, _ = s.answer("ana", q.ID, "right", 6)

	ranking, err := s.engine.GetRanking(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Require().Len(ranking, 2)
	// Both score 140; Luis answered faster
	s.Equal(ranking[0].Score, ranking[1].Score)
	s.Equal(model.PlayerID("luis"), ranking[0].PlayerID)
}

func (s *EngineSuite) TestWinnerHasTopScore() {
	q := s.start()
	s.clock.Advance(10 * time.Second)
	_, _ = s.answer("ana", q.ID, "wrong", 1)
	_, _ = s.answer("luis", q.ID, "right", 1)

	winner, err := s.engine.GetWinner(s.ctx, s.room.ID)
	s.Require().NoError(err)
	s.Require().NotNil(winner)
	s.Equal(model.PlayerID("luis"), winner.ID)
	s.Empty(winner.ClaimToken)
}

func (s *EngineSuite) TestWinnerNilWithoutScores() {
	winner, err := s.engine.GetWinner(s.ctx, s.room.ID)
	s.NoError(err)
	s.Nil(winner)

	ranking, err := s.engine.GetRanking(s.ctx, s.room.ID)
	s.NoError(err)
	s.Empty(ranking)
}

// Reset and RemovePlayer tests

func (s *EngineSuite) TestResetFromAnyState() {
	s.start()
	s.Require().NoError(s.engine.Reset(s.ctx, s.room.ID))

	room := s.stored()
	s.Equal(model.TriviaStateWaiting, room.State)
	s.Nil(room.Trivia)

	// A fresh session can start again
	s.start()
}

func (s *EngineSuite) TestRemovePlayerDropsScore() {
	q := s.start()
	_, _ = s.answer("luis", q.ID, "right", 0)

	s.Require().NoError(s.engine.RemovePlayer(s.ctx, s.room.ID, "luis"))

	room := s.stored()
	s.NotContains(room.Trivia.Scores, model.PlayerID("luis"))
	s.NotContains(room.Trivia.Answers, model.PlayerID("luis"))
}
