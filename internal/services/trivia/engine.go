package trivia

import (
	"context"
	"log/slog"
	"math"

	"github.com/samber/lo"

	"github.com/mcoot/partyrooms/internal/dependencies/clock"
	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/questions"
	"github.com/mcoot/partyrooms/internal/services/scoring"
	"github.com/mcoot/partyrooms/internal/storage"
)

// Config tunes answer scoring
type Config struct {
	// ClampToServerTime caps reported answer times at the server-measured
	// elapsed time since the question was sent.
	ClampToServerTime bool
}

// AnswerResult is the outcome of an accepted answer
type AnswerResult struct {
	Answer      model.Answer
	AllAnswered bool
}

// QuestionResult is what the room sees when a question closes
type QuestionResult struct {
	QuestionID    string
	CorrectAnswer string
	Ranking       []model.PlayerScore
	IsLast        bool
}

// NextResult reports which way NextQuestion went
type NextResult struct {
	Question      *model.TriviaQuestion // nil when the session ended
	QuestionIndex int
	TriviaEnded   bool
}

// Engine drives the per-room trivia state machine
type Engine struct {
	storage   storage.RoomStore
	questions questions.SourceInterface
	scoring   scoring.ServiceInterface
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// NewEngine creates a new trivia Engine
func NewEngine(
	storage storage.RoomStore,
	questions questions.SourceInterface,
	scoring scoring.ServiceInterface,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage:   storage,
		questions: questions,
		scoring:   scoring,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "trivia")),
	}
}

func (e *Engine) load(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return e.storage.GetRoom(ctx, roomID)
}

// StartTrivia fetches the question set and opens the first question
func (e *Engine) StartTrivia(ctx context.Context, roomID model.RoomID) (*model.Room, *model.TriviaQuestion, error) {
	room, err := e.PrepareTrivia(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	qs, err := e.questions.GetQuestions(ctx, room.MinigameCount, room.Difficulty)
	if err != nil {
		_ = e.Reset(ctx, roomID)
		return nil, nil, err
	}
	return e.ActivateTrivia(ctx, roomID, qs)
}

// PrepareTrivia moves a room into TRIVIA_ACTIVE while questions load.
// A session already in progress is rejected.
func (e *Engine) PrepareTrivia(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}

	switch room.State {
	case model.TriviaStateActive, model.TriviaStateQuestionActive, model.TriviaStateQuestionEnded:
		return nil, model.ErrTriviaInProgress
	}

	room.State = model.TriviaStateActive
	room.Trivia = &model.TriviaSession{
		Answers: make(map[model.PlayerID]model.Answer),
		Scores:  make(map[model.PlayerID]*model.PlayerScore),
	}
	room.LastActivity = e.clock.Now()
	if err := e.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// ActivateTrivia installs the fetched questions, creates a score for every
// online competing player and opens the first question.
func (e *Engine) ActivateTrivia(ctx context.Context, roomID model.RoomID, qs []model.TriviaQuestion) (*model.Room, *model.TriviaQuestion, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.State != model.TriviaStateActive || room.Trivia == nil {
		return nil, nil, model.ErrInvalidTriviaState
	}
	if len(qs) == 0 {
		e.resetRoom(room)
		_ = e.storage.SaveRoom(ctx, room)
		return nil, nil, model.ErrNoQuestions
	}

	now := e.clock.Now()
	session := room.Trivia
	session.Questions = qs
	session.CurrentIndex = 0
	session.QuestionStartTime = now
	session.Answers = make(map[model.PlayerID]model.Answer)
	session.Scores = make(map[model.PlayerID]*model.PlayerScore)
	for _, p := range room.ScoredPlayers() {
		session.Scores[p.ID] = &model.PlayerScore{PlayerID: p.ID, PlayerName: p.Name}
	}

	room.State = model.TriviaStateQuestionActive
	room.LastActivity = now
	if err := e.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}

	e.logger.Info("trivia started",
		slog.String("room_id", string(room.ID)),
		slog.Int("questions", len(qs)),
		slog.Int("players", len(session.Scores)),
	)
	return room, session.CurrentQuestion(), nil
}

// SubmitAnswer records a player's answer to the live question. Each player
// may answer a question at most once; later submissions are rejected.
func (e *Engine) SubmitAnswer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, sub model.AnswerSubmission) (*AnswerResult, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.State != model.TriviaStateQuestionActive || room.Trivia == nil {
		return nil, model.ErrInvalidTriviaState
	}

	session := room.Trivia
	question := session.CurrentQuestion()
	if question == nil || question.ID != sub.QuestionID {
		return nil, model.ErrQuestionMismatch
	}

	ps, ok := session.Scores[playerID]
	if !ok {
		return nil, model.ErrNotScoredPlayer
	}
	if _, answered := session.Answers[playerID]; answered {
		return nil, model.ErrAlreadyAnswered
	}

	timeUsed := scoring.ClampTimeUsed(sub.TimeUsed, question.TimeLimit)
	if e.cfg.ClampToServerTime {
		elapsed := e.clock.Since(session.QuestionStartTime).Seconds()
		timeUsed = math.Min(timeUsed, math.Max(elapsed, 0))
	}

	isCorrect := sub.SelectedAnswer == question.CorrectAnswer
	points := e.scoring.ScoreAnswer(isCorrect, timeUsed, question.TimeLimit)
	e.scoring.RecordAnswer(ps, points, isCorrect, timeUsed)

	answer := model.Answer{
		PlayerID:       playerID,
		QuestionID:     question.ID,
		SelectedAnswer: sub.SelectedAnswer,
		TimeUsed:       timeUsed,
		IsCorrect:      isCorrect,
		Points:         points,
		SubmittedAt:    e.clock.Now(),
	}
	session.Answers[playerID] = answer
	room.LastActivity = answer.SubmittedAt

	if err := e.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return &AnswerResult{Answer: answer, AllAnswered: allAnswered(room)}, nil
}

// AllAnswered reports whether every competing player has answered the live question
func (e *Engine) AllAnswered(ctx context.Context, roomID model.RoomID) (bool, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.State != model.TriviaStateQuestionActive {
		return false, nil
	}
	return allAnswered(room), nil
}

// allAnswered compares recorded answers with the scored players still connected.
// A scored player who has dropped out does not hold the question open.
func allAnswered(room *model.Room) bool {
	if room.Trivia == nil {
		return false
	}
	for id := range room.Trivia.Scores {
		if _, ok := room.Trivia.Answers[id]; ok {
			continue
		}
		if p := room.GetPlayer(id); p != nil && p.IsOnline {
			return false
		}
	}
	return true
}

// EndQuestion closes the live question and reveals the answer
func (e *Engine) EndQuestion(ctx context.Context, roomID model.RoomID) (*QuestionResult, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.State != model.TriviaStateQuestionActive || room.Trivia == nil {
		return nil, model.ErrInvalidTriviaState
	}

	result := e.closeQuestion(room)
	if err := e.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) closeQuestion(room *model.Room) *QuestionResult {
	question := room.Trivia.CurrentQuestion()
	room.State = model.TriviaStateQuestionEnded
	room.LastActivity = e.clock.Now()
	return &QuestionResult{
		QuestionID:    question.ID,
		CorrectAnswer: question.CorrectAnswer,
		Ranking:       e.rank(room),
		IsLast:        room.Trivia.IsLastQuestion(),
	}
}

// NextQuestion advances past the current question, closing it first if it
// is still open. After the last question the session moves to TRIVIA_ENDED
// and the question set is discarded; scores remain until Reset.
func (e *Engine) NextQuestion(ctx context.Context, roomID model.RoomID) (*NextResult, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Trivia == nil {
		return nil, model.ErrInvalidTriviaState
	}

	switch room.State {
	case model.TriviaStateQuestionActive:
		e.closeQuestion(room)
	case model.TriviaStateQuestionEnded:
	default:
		return nil, model.ErrInvalidTriviaState
	}

	session := room.Trivia
	now := e.clock.Now()
	room.LastActivity = now

	if session.IsLastQuestion() {
		room.State = model.TriviaStateEnded
		session.Questions = nil
		session.CurrentIndex = 0
		session.Answers = make(map[model.PlayerID]model.Answer)
		if err := e.storage.SaveRoom(ctx, room); err != nil {
			return nil, err
		}
		e.logger.Info("trivia ended", slog.String("room_id", string(room.ID)))
		return &NextResult{TriviaEnded: true}, nil
	}

	session.CurrentIndex++
	session.QuestionStartTime = now
	session.Answers = make(map[model.PlayerID]model.Answer)
	room.State = model.TriviaStateQuestionActive

	if err := e.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return &NextResult{Question: session.CurrentQuestion(), QuestionIndex: session.CurrentIndex}, nil
}

// CurrentQuestion returns the open question, or nil when none is being answered
func (e *Engine) CurrentQuestion(ctx context.Context, roomID model.RoomID) (*model.TriviaQuestion, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.State != model.TriviaStateQuestionActive {
		return nil, nil
	}
	return room.Trivia.CurrentQuestion(), nil
}

// GetRanking returns scores ordered by score, then by faster average time
func (e *Engine) GetRanking(ctx context.Context, roomID model.RoomID) ([]model.PlayerScore, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return e.rank(room), nil
}

func (e *Engine) rank(room *model.Room) []model.PlayerScore {
	if room.Trivia == nil {
		return []model.PlayerScore{}
	}
	order := lo.Map(room.Players, func(p model.Player, _ int) model.PlayerID { return p.ID })
	return e.scoring.Rank(room.Trivia.Scores, order)
}

// GetWinner returns the top-ranked player, or nil when nobody has a score
func (e *Engine) GetWinner(ctx context.Context, roomID model.RoomID) (*model.Player, error) {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ranking := e.rank(room)
	if len(ranking) == 0 {
		return nil, nil
	}
	p := room.GetPlayer(ranking[0].PlayerID)
	if p == nil {
		return nil, nil
	}
	winner := p.Public()
	return &winner, nil
}

// Reset returns the room to WAITING and drops all trivia data, whatever the state
func (e *Engine) Reset(ctx context.Context, roomID model.RoomID) error {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	e.resetRoom(room)
	return e.storage.SaveRoom(ctx, room)
}

func (e *Engine) resetRoom(room *model.Room) {
	room.State = model.TriviaStateWaiting
	room.Trivia = nil
	room.LastActivity = e.clock.Now()
}

// RemovePlayer drops a departing player's score and pending answer
func (e *Engine) RemovePlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	room, err := e.load(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Trivia == nil {
		return nil
	}
	delete(room.Trivia.Scores, playerID)
	delete(room.Trivia.Answers, playerID)
	return e.storage.SaveRoom(ctx, room)
}
