package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/partyrooms/internal/model"
)

func questionKey(roomID model.RoomID) string { return "question:" + string(roomID) }
func advanceKey(roomID model.RoomID) string  { return "advance:" + string(roomID) }

func questionSent(session *model.TriviaSession, q *model.TriviaQuestion) model.QuestionSentPayload {
	return model.QuestionSentPayload{
		Question:      q.Public(),
		TimeLimit:     q.TimeLimit,
		QuestionIndex: session.CurrentIndex,
		TotalCount:    len(session.Questions),
	}
}

func (g *Gateway) handleStartTrivia(ctx context.Context, conn model.ConnectionID) {
	r, p, err := g.caller(ctx, conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	if !p.IsHost {
		g.sendError(conn, model.ErrNotHost)
		return
	}

	r, err = g.engine.PrepareTrivia(ctx, r.ID)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	g.toRoom(r, model.EventTriviaStarted, model.RoomPayload{Room: r.Public()})

	roomID, amount, difficulty := r.ID, r.MinigameCount, r.Difficulty
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
		defer cancel()
		qs, err := g.questions.GetQuestions(fetchCtx, amount, difficulty)
		g.loop.Post(func(ctx context.Context) {
			g.activateTrivia(ctx, conn, roomID, qs, err)
		})
	}()
}

// activateTrivia runs on the loop once questions have been fetched
func (g *Gateway) activateTrivia(ctx context.Context, conn model.ConnectionID, roomID model.RoomID, qs []model.TriviaQuestion, fetchErr error) {
	if fetchErr != nil {
		g.logger.Error("question fetch failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", fetchErr.Error()),
		)
		g.abortTrivia(ctx, conn, roomID, model.ErrNoQuestions)
		return
	}

	r, _, err := g.engine.ActivateTrivia(ctx, roomID, qs)
	if err != nil {
		g.abortTrivia(ctx, conn, roomID, err)
		return
	}
	g.sendQuestion(r)
}

// abortTrivia puts a room whose session never got going back to waiting
func (g *Gateway) abortTrivia(ctx context.Context, conn model.ConnectionID, roomID model.RoomID, cause error) {
	r, err := g.registry.GetRoomByID(ctx, roomID)
	if err != nil || r == nil {
		return
	}
	if r.State != model.TriviaStateActive && r.State != model.TriviaStateWaiting {
		// Someone else's session is running; leave it alone
		return
	}
	if err := g.engine.Reset(ctx, roomID); err != nil {
		g.logger.Error("failed to reset trivia",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if r, _ = g.registry.GetRoomByID(ctx, roomID); r == nil {
		return
	}
	if p := r.GetPlayerByConnection(conn); p != nil {
		g.sendError(conn, cause)
	}
	g.toRoom(r, model.EventRoomUpdated, model.RoomPayload{Room: r.Public()})
}

// sendQuestion broadcasts the open question and arms its timeout
func (g *Gateway) sendQuestion(r *model.Room) {
	q := r.Trivia.CurrentQuestion()
	if q == nil {
		return
	}
	g.toRoom(r, model.EventQuestionSent, questionSent(r.Trivia, q))

	roomID, questionID := r.ID, q.ID
	g.scheduler.Schedule(questionKey(roomID), time.Duration(q.TimeLimit)*time.Second, func() {
		g.loop.Post(func(ctx context.Context) {
			if g.isOpenQuestion(ctx, roomID, questionID, model.TriviaStateQuestionActive) {
				g.endQuestion(ctx, roomID)
			}
		})
	})
}

// isOpenQuestion guards fired timers against a session that has moved on
func (g *Gateway) isOpenQuestion(ctx context.Context, roomID model.RoomID, questionID string, state model.TriviaState) bool {
	r, err := g.registry.GetRoomByID(ctx, roomID)
	if err != nil || r == nil || r.State != state || r.Trivia == nil {
		return false
	}
	q := r.Trivia.CurrentQuestion()
	return q != nil && q.ID == questionID
}

func (g *Gateway) handleSubmitAnswer(ctx context.Context, conn model.ConnectionID, sub *model.AnswerSubmission) {
	r, p, err := g.caller(ctx, conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	if !p.IsScored() {
		g.sendError(conn, model.ErrNotScoredPlayer)
		return
	}

	result, err := g.engine.SubmitAnswer(ctx, r.ID, p.ID, *sub)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	g.toCaller(conn, model.EventAnswerReceived, model.AnswerReceivedPayload{
		PlayerID:  p.ID,
		IsCorrect: result.Answer.IsCorrect,
		TimeUsed:  result.Answer.TimeUsed,
		Points:    result.Answer.Points,
	})
	g.toRoomExcept(r, conn, model.EventPlayerAnswered, model.PlayerAnsweredPayload{PlayerID: p.ID})

	if result.AllAnswered {
		g.endQuestion(ctx, r.ID)
	}
}

func (g *Gateway) handleNextQuestion(ctx context.Context, conn model.ConnectionID) {
	r, p, err := g.caller(ctx, conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	if !p.IsHost {
		g.sendError(conn, model.ErrNotHost)
		return
	}

	switch r.State {
	case model.TriviaStateQuestionActive:
		g.endQuestion(ctx, r.ID)
	case model.TriviaStateQuestionEnded:
		g.advance(ctx, r.ID)
	default:
		g.sendError(conn, model.ErrInvalidTriviaState)
	}
}

// endIfAllAnswered closes the live question once nobody is left to answer it
func (g *Gateway) endIfAllAnswered(ctx context.Context, r *model.Room) {
	if r.State != model.TriviaStateQuestionActive {
		return
	}
	done, err := g.engine.AllAnswered(ctx, r.ID)
	if err != nil || !done {
		return
	}
	g.endQuestion(ctx, r.ID)
}

// endQuestion reveals the answer and schedules the advance
func (g *Gateway) endQuestion(ctx context.Context, roomID model.RoomID) {
	g.scheduler.Cancel(questionKey(roomID))

	result, err := g.engine.EndQuestion(ctx, roomID)
	if err != nil {
		g.logger.Warn("end question rejected",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}
	r, err := g.registry.GetRoomByID(ctx, roomID)
	if err != nil || r == nil {
		return
	}
	g.toRoom(r, model.EventQuestionEnded, model.QuestionEndedPayload{
		CorrectAnswer: result.CorrectAnswer,
		Ranking:       result.Ranking,
	})

	questionID := result.QuestionID
	g.scheduler.Schedule(advanceKey(roomID), g.cfg.ResultsDelay, func() {
		g.loop.Post(func(ctx context.Context) {
			if g.isOpenQuestion(ctx, roomID, questionID, model.TriviaStateQuestionEnded) {
				g.advance(ctx, roomID)
			}
		})
	})
}

// advance moves to the next question, or finishes the session
func (g *Gateway) advance(ctx context.Context, roomID model.RoomID) {
	g.scheduler.Cancel(advanceKey(roomID))

	next, err := g.engine.NextQuestion(ctx, roomID)
	if err != nil {
		g.logger.Warn("advance rejected",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if !next.TriviaEnded {
		r, err := g.registry.GetRoomByID(ctx, roomID)
		if err != nil || r == nil {
			return
		}
		g.sendQuestion(r)
		return
	}

	ranking, err := g.engine.GetRanking(ctx, roomID)
	if err != nil {
		g.logger.Error("failed to rank players", slog.String("error", err.Error()))
		return
	}
	winner, err := g.engine.GetWinner(ctx, roomID)
	if err != nil {
		g.logger.Error("failed to resolve winner", slog.String("error", err.Error()))
		return
	}
	r, err := g.registry.GetRoomByID(ctx, roomID)
	if err != nil || r == nil {
		return
	}
	g.toRoom(r, model.EventTriviaEnded, model.TriviaEndedPayload{FinalScores: ranking, Winner: winner})

	if err := g.engine.Reset(ctx, roomID); err != nil {
		g.logger.Error("failed to reset trivia",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if r, err = g.registry.GetRoomByID(ctx, roomID); err == nil && r != nil {
		g.toRoom(r, model.EventRoomUpdated, model.RoomPayload{Room: r.Public()})
	}
}
