package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyrooms/internal/dependencies/mocks"
	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/identity"
	"github.com/mcoot/partyrooms/internal/services/room"
	"github.com/mcoot/partyrooms/internal/services/scoring"
	"github.com/mcoot/partyrooms/internal/services/trivia"
	"github.com/mcoot/partyrooms/internal/storage/memory"
	"github.com/mcoot/partyrooms/internal/testutil"
)

// recordingTransport keeps every event sent to each connection
type recordingTransport struct {
	mu     sync.Mutex
	events map[model.ConnectionID][]model.Event
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{events: make(map[model.ConnectionID][]model.Event)}
}

func (t *recordingTransport) Send(conn model.ConnectionID, event model.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[conn] = append(t.events[conn], event)
}

func (t *recordingTransport) types(conn model.ConnectionID) []model.EventType {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.EventType, 0, len(t.events[conn]))
	for _, e := range t.events[conn] {
		out = append(out, e.Type)
	}
	return out
}

// last returns the most recent event of the given type sent to conn
func (t *recordingTransport) last(conn model.ConnectionID, eventType model.EventType) (model.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := t.events[conn]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return events[i], true
		}
	}
	return model.Event{}, false
}

func (t *recordingTransport) count(conn model.ConnectionID, eventType model.EventType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events[conn] {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (t *recordingTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = make(map[model.ConnectionID][]model.Event)
}

// fixedSource hands out the same question set every time
type fixedSource struct {
	mu  sync.Mutex
	qs  []model.TriviaQuestion
	err error
}

func (s *fixedSource) GetQuestions(ctx context.Context, amount int, difficulty string) ([]model.TriviaQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.qs[:min(amount, len(s.qs))], nil
}

func questionSet(n int) []model.TriviaQuestion {
	qs := make([]model.TriviaQuestion, n)
	for i := range qs {
		qs[i] = model.TriviaQuestion{
			ID:            fmt.Sprintf("q%d", i+1),
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
			TimeLimit:     20,
		}
	}
	return qs
}

type GatewaySuite struct {
	suite.Suite
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	scheduler *mocks.ManualScheduler
	source    *fixedSource
	transport *recordingTransport
	registry  *room.Registry
	gateway   *Gateway
	ctx       context.Context
	cancel    context.CancelFunc
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	store := memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.scheduler = mocks.NewManualScheduler()
	s.source = &fixedSource{qs: questionSet(3)}
	s.transport = newRecordingTransport()

	logger := testutil.NopLogger()
	s.registry = room.NewRegistry(store, identity.New(s.random), room.NewPresence(), s.clock, time.Hour, logger)
	engine := trivia.NewEngine(store, s.source, scoring.New(), s.clock, trivia.Config{}, logger)

	cfg := DefaultConfig()
	cfg.CleanupInterval = 0
	s.gateway = New(s.registry, engine, s.source, s.scheduler, s.transport, cfg, logger)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.gateway.Run(s.ctx)
}

func (s *GatewaySuite) TearDownTest() {
	s.cancel()
	<-s.gateway.Done()
}

func (s *GatewaySuite) flush() {
	s.Require().NoError(s.gateway.Flush(context.Background()))
}

func (s *GatewaySuite) send(conn model.ConnectionID, cmd model.Command) {
	s.gateway.Dispatch(conn, cmd)
	s.flush()
}

func (s *GatewaySuite) createRoom(code string, maxPlayers int) (*model.RoomView, model.ClaimToken) {
	s.random.QueueString(code)
	view, token, err := s.gateway.CreateRoom(context.Background(), model.RoomSettings{
		Name:          "Friday",
		HostName:      "Ana",
		MaxPlayers:    maxPlayers,
		MinigameCount: 3,
	})
	s.Require().NoError(err)
	return view, token
}

func (s *GatewaySuite) join(conn model.ConnectionID, code, name string, token model.ClaimToken) {
	s.send(conn, model.Command{
		Type:     model.CommandJoinRoom,
		JoinRoom: &model.JoinRoomCommand{RoomCode: code, PlayerName: name, ClaimToken: token},
	})
}

func (s *GatewaySuite) answer(conn model.ConnectionID, questionID, selected string, timeUsed float64) {
	s.send(conn, model.Command{
		Type: model.CommandSubmitAnswer,
		SubmitAnswer: &model.AnswerSubmission{
			QuestionID:     questionID,
			SelectedAnswer: selected,
			TimeUsed:       timeUsed,
		},
	})
}

// setupTwoPlayers creates a room hosted by Ana on c1 with Luis on c2
func (s *GatewaySuite) setupTwoPlayers() *model.RoomView {
	view, token := s.createRoom("ABC234", 4)
	s.join("c1", "ABC234", "Ana", token)
	s.join("c2", "ABC234", "Luis", "")
	return view
}

// startTrivia starts a session and waits for the first question
func (s *GatewaySuite) startTrivia() model.QuestionSentPayload {
	s.send("c1", model.Command{Type: model.CommandStartTrivia})
	s.Eventually(func() bool {
		return s.transport.count("c2", model.EventQuestionSent) > 0
	}, time.Second, 5*time.Millisecond)
	s.flush()
	return s.lastQuestion("c2")
}

func (s *GatewaySuite) lastQuestion(conn model.ConnectionID) model.QuestionSentPayload {
	ev, ok := s.transport.last(conn, model.EventQuestionSent)
	s.Require().True(ok)
	return ev.Payload.(model.QuestionSentPayload)
}

func (s *GatewaySuite) lastError(conn model.ConnectionID) string {
	ev, ok := s.transport.last(conn, model.EventError)
	s.Require().True(ok, "expected an error event")
	return ev.Payload.(model.ErrorPayload).Message
}

func (s *GatewaySuite) fire(key string) {
	s.Require().True(s.scheduler.Fire(key), "no task pending for %s", key)
	s.flush()
}

// Join tests

func (s *GatewaySuite) TestHostClaimsRoomWithToken() {
	view, token := s.createRoom("ABC234", 4)

	s.join("c1", "abc234", "Ana", token)

	ev, ok := s.transport.last("c1", model.EventRoomJoined)
	s.Require().True(ok)
	payload := ev.Payload.(model.RoomJoinedPayload)
	s.True(payload.Player.IsHost)
	s.Equal(view.HostID, payload.Player.ID)
	s.Equal(token, payload.ClaimToken)
	s.Empty(payload.Player.ClaimToken)
	s.Equal(1, payload.Room.CurrentPlayers)
}

func (s *GatewaySuite) TestJoinAnnouncesToOthers() {
	s.setupTwoPlayers()

	ev, ok := s.transport.last("c1", model.EventPlayerJoined)
	s.Require().True(ok)
	s.Equal("Luis", ev.Payload.(model.PlayerJoinedPayload).Player.Name)
	s.Equal(0, s.transport.count("c2", model.EventPlayerJoined))

	ev, ok = s.transport.last("c2", model.EventRoomUpdated)
	s.Require().True(ok)
	s.Equal(2, ev.Payload.(model.RoomPayload).Room.CurrentPlayers)

	joined, ok := s.transport.last("c2", model.EventRoomJoined)
	s.Require().True(ok)
	s.NotEmpty(joined.Payload.(model.RoomJoinedPayload).ClaimToken)
	s.False(joined.Payload.(model.RoomJoinedPayload).Player.IsHost)
}

func (s *GatewaySuite) TestJoinUnknownRoom() {
	s.join("c1", "ZZZ999", "Ana", "")

	s.Equal([]model.EventType{model.EventRoomNotFound}, s.transport.types("c1"))
}

func (s *GatewaySuite) TestJoinFullRoom() {
	_, token := s.createRoom("ABC234", 2)
	s.join("c1", "ABC234", "Ana", token)
	s.join("c2", "ABC234", "Luis", "")

	s.join("c3", "ABC234", "Mia", "")

	s.Equal([]model.EventType{model.EventRoomFull}, s.transport.types("c3"))
}

func (s *GatewaySuite) TestJoinInvalidPayloadViaWire() {
	s.gateway.HandleMessage("c1", []byte(`{"type":"join-room","payload":{"roomCode":"AB","playerName":""}}`))
	s.flush()

	s.Contains(s.lastError("c1"), model.ErrInvalidPayload.Error())
}

func (s *GatewaySuite) TestUnknownCommandViaWire() {
	s.gateway.HandleMessage("c1", []byte(`{"type":"dance"}`))
	s.flush()

	s.Contains(s.lastError("c1"), model.ErrUnknownCommand.Error())
}

func (s *GatewaySuite) TestJoiningAnotherRoomLeavesTheFirst() {
	s.setupTwoPlayers()
	_, token := s.createRoom("XYZ789", 4)
	s.join("c3", "XYZ789", "Mia", token)

	s.join("c2", "XYZ789", "Luis", "")

	left, ok := s.transport.last("c1", model.EventPlayerLeft)
	s.Require().True(ok)
	s.NotEmpty(left.Payload.(model.PlayerLeftPayload).PlayerID)

	first, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(first.Players, 1)
	second, err := s.gateway.GetRoom(context.Background(), "XYZ789")
	s.Require().NoError(err)
	s.Len(second.Players, 2)
}

func (s *GatewaySuite) TestRejoinSameRoomIsIdempotent() {
	s.setupTwoPlayers()

	s.join("c2", "ABC234", "Luis", "")

	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(view.Players, 2)
	s.Equal(2, s.transport.count("c2", model.EventRoomJoined))
}

func (s *GatewaySuite) TestReclaimAfterDisconnect() {
	s.setupTwoPlayers()
	joined, _ := s.transport.last("c2", model.EventRoomJoined)
	token := joined.Payload.(model.RoomJoinedPayload).ClaimToken

	s.gateway.Disconnect("c2")
	s.flush()
	s.join("c9", "ABC234", "Luis", token)

	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(view.Players, 2)
	s.Equal(2, view.CurrentPlayers)
}

func (s *GatewaySuite) TestFailedSwitchToUnknownRoomKeepsCurrentRoom() {
	s.setupTwoPlayers()
	s.transport.reset()

	s.join("c1", "ZZZ999", "Ana", "")

	s.Equal([]model.EventType{model.EventRoomNotFound}, s.transport.types("c1"))
	s.Empty(s.transport.types("c2"))
	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(view.Players, 2)
	s.Equal(2, view.CurrentPlayers)
	s.True(view.Players[0].IsHost)
	s.Equal("Ana", view.Players[0].Name)
}

func (s *GatewaySuite) TestFailedSwitchToFullRoomKeepsCurrentRoom() {
	s.setupTwoPlayers()
	_, token := s.createRoom("XYZ789", 2)
	s.join("c3", "XYZ789", "Mia", token)
	s.join("c4", "XYZ789", "Eva", "")
	s.transport.reset()

	s.join("c1", "XYZ789", "Ana", "")

	s.Equal([]model.EventType{model.EventRoomFull}, s.transport.types("c1"))
	first, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(first.Players, 2)
	s.True(first.Players[0].IsHost)
	second, err := s.gateway.GetRoom(context.Background(), "XYZ789")
	s.Require().NoError(err)
	s.Len(second.Players, 2)
}

func (s *GatewaySuite) TestReclaimOnlyUpdatesOthers() {
	s.setupTwoPlayers()
	joined, _ := s.transport.last("c2", model.EventRoomJoined)
	token := joined.Payload.(model.RoomJoinedPayload).ClaimToken
	s.gateway.Disconnect("c2")
	s.flush()
	s.transport.reset()

	s.join("c9", "ABC234", "Luis", token)

	s.Equal(0, s.transport.count("c1", model.EventPlayerJoined))
	ev, ok := s.transport.last("c1", model.EventRoomUpdated)
	s.Require().True(ok)
	s.Equal(2, ev.Payload.(model.RoomPayload).Room.CurrentPlayers)
}

func (s *GatewaySuite) TestReclaimFromNewSocketNotifiesOldSocket() {
	s.setupTwoPlayers()
	joined, _ := s.transport.last("c2", model.EventRoomJoined)
	token := joined.Payload.(model.RoomJoinedPayload).ClaimToken

	s.join("c9", "ABC234", "Luis", token)

	s.Equal(model.ErrSessionReplaced.Error(), s.lastError("c2"))
	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Len(view.Players, 2)
	s.Equal(2, view.CurrentPlayers)
}

func (s *GatewaySuite) TestHostWhoLeftAloneHandsOverToNextJoiner() {
	_, token := s.createRoom("ABC234", 4)
	s.join("c1", "ABC234", "Ana", token)
	s.gateway.Disconnect("c1")
	s.flush()

	s.join("c2", "ABC234", "Luis", "")
	s.send("c2", model.Command{Type: model.CommandStartGame})

	ev, ok := s.transport.last("c2", model.EventGameStarted)
	s.Require().True(ok)
	room := ev.Payload.(model.RoomPayload).Room
	s.Equal("Luis", room.Players[1].Name)
	s.True(room.Players[1].IsHost)
	s.False(room.Players[0].IsHost)
}

func (s *GatewaySuite) TestBroadcastViewsOmitConnectionIDs() {
	s.setupTwoPlayers()

	ev, ok := s.transport.last("c1", model.EventRoomUpdated)
	s.Require().True(ok)
	for _, p := range ev.Payload.(model.RoomPayload).Room.Players {
		s.Empty(p.ConnectionID)
		s.Empty(p.ClaimToken)
	}
	joined, _ := s.transport.last("c2", model.EventRoomJoined)
	s.Empty(joined.Payload.(model.RoomJoinedPayload).Player.ConnectionID)
}

// Leave and disconnect tests

func (s *GatewaySuite) TestLeaveTransfersHost() {
	s.setupTwoPlayers()

	s.send("c1", model.Command{Type: model.CommandLeaveRoom})

	ev, ok := s.transport.last("c2", model.EventRoomUpdated)
	s.Require().True(ok)
	view := ev.Payload.(model.RoomPayload).Room
	s.Require().Len(view.Players, 1)
	s.True(view.Players[0].IsHost)
	s.Equal("Luis", view.Players[0].Name)
	s.Equal(1, s.transport.count("c2", model.EventPlayerLeft))
}

func (s *GatewaySuite) TestLastPlayerLeavingDeletesRoom() {
	s.setupTwoPlayers()
	s.startTrivia()

	s.send("c1", model.Command{Type: model.CommandLeaveRoom})
	s.send("c2", model.Command{Type: model.CommandLeaveRoom})

	_, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Empty(s.scheduler.Keys())
}

func (s *GatewaySuite) TestLeaveWithoutRoom() {
	s.send("c1", model.Command{Type: model.CommandLeaveRoom})

	s.Equal(model.ErrNotInRoom.Error(), s.lastError("c1"))
}

func (s *GatewaySuite) TestDisconnectMarksOffline() {
	s.setupTwoPlayers()

	s.gateway.Disconnect("c2")
	s.flush()

	ev, ok := s.transport.last("c1", model.EventRoomUpdated)
	s.Require().True(ok)
	view := ev.Payload.(model.RoomPayload).Room
	s.Len(view.Players, 2)
	s.Equal(1, view.CurrentPlayers)
}

// Game and trivia tests

func (s *GatewaySuite) TestStartGameRequiresHost() {
	s.setupTwoPlayers()

	s.send("c2", model.Command{Type: model.CommandStartGame})
	s.Equal(model.ErrNotHost.Error(), s.lastError("c2"))

	s.send("c1", model.Command{Type: model.CommandStartGame})
	ev, ok := s.transport.last("c2", model.EventGameStarted)
	s.Require().True(ok)
	s.True(ev.Payload.(model.RoomPayload).Room.GameStarted)
}

func (s *GatewaySuite) TestStartTriviaRequiresHost() {
	s.setupTwoPlayers()

	s.send("c2", model.Command{Type: model.CommandStartTrivia})

	s.Equal(model.ErrNotHost.Error(), s.lastError("c2"))
	s.Equal(0, s.transport.count("c1", model.EventTriviaStarted))
}

func (s *GatewaySuite) TestStartTriviaSendsQuestionWithoutAnswer() {
	s.setupTwoPlayers()

	q := s.startTrivia()

	s.Equal(1, s.transport.count("c1", model.EventTriviaStarted))
	s.Equal("q1", q.Question.ID)
	s.Equal(20, q.TimeLimit)
	s.Equal(0, q.QuestionIndex)
	s.Equal(3, q.TotalCount)
	s.True(s.scheduler.Pending("question:" + string(s.roomID())))
	delay, _ := s.scheduler.Delay("question:" + string(s.roomID()))
	s.Equal(20*time.Second, delay)
}

func (s *GatewaySuite) TestSecondStartIsRejected() {
	s.setupTwoPlayers()
	s.startTrivia()

	s.send("c1", model.Command{Type: model.CommandStartTrivia})

	s.Equal(model.ErrTriviaInProgress.Error(), s.lastError("c1"))
}

func (s *GatewaySuite) TestFetchFailureReturnsRoomToWaiting() {
	s.setupTwoPlayers()
	s.source.err = errors.New("boom")

	s.send("c1", model.Command{Type: model.CommandStartTrivia})
	s.Eventually(func() bool {
		return s.transport.count("c1", model.EventError) > 0
	}, time.Second, 5*time.Millisecond)
	s.flush()

	s.Equal(model.ErrNoQuestions.Error(), s.lastError("c1"))
	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Equal(model.TriviaStateWaiting, view.State)
}

func (s *GatewaySuite) TestAnswerAudience() {
	s.setupTwoPlayers()
	q := s.startTrivia()

	s.answer("c1", q.Question.ID, "A", 5)

	ev, ok := s.transport.last("c1", model.EventAnswerReceived)
	s.Require().True(ok)
	received := ev.Payload.(model.AnswerReceivedPayload)
	s.True(received.IsCorrect)
	s.Equal(137, received.Points)
	s.Equal(0, s.transport.count("c2", model.EventAnswerReceived))
	s.Equal(1, s.transport.count("c2", model.EventPlayerAnswered))
	s.Equal(0, s.transport.count("c1", model.EventPlayerAnswered))
	s.Equal(0, s.transport.count("c1", model.EventQuestionEnded))
}

func (s *GatewaySuite) TestDuplicateAnswerRejected() {
	s.setupTwoPlayers()
	q := s.startTrivia()

	s.answer("c1", q.Question.ID, "A", 5)
	s.answer("c1", q.Question.ID, "B", 6)

	s.Equal(model.ErrAlreadyAnswered.Error(), s.lastError("c1"))
	s.Equal(1, s.transport.count("c1", model.EventAnswerReceived))
}

func (s *GatewaySuite) TestSpectatorCannotAnswer() {
	s.setupTwoPlayers()
	s.send("c3", model.Command{
		Type:     model.CommandJoinRoom,
		JoinRoom: &model.JoinRoomCommand{RoomCode: "ABC234", PlayerName: "Spec", IsSpectator: true},
	})
	q := s.startTrivia()

	s.answer("c3", q.Question.ID, "A", 1)

	s.Equal(model.ErrNotScoredPlayer.Error(), s.lastError("c3"))
}

func (s *GatewaySuite) TestAllAnsweredEndsQuestionEarly() {
	s.setupTwoPlayers()
	q := s.startTrivia()
	key := "question:" + string(s.roomID())

	s.answer("c1", q.Question.ID, "A", 5)
	s.answer("c2", q.Question.ID, "B", 3)

	ev, ok := s.transport.last("c2", model.EventQuestionEnded)
	s.Require().True(ok)
	ended := ev.Payload.(model.QuestionEndedPayload)
	s.Equal("A", ended.CorrectAnswer)
	s.Require().Len(ended.Ranking, 2)
	s.Equal("Ana", ended.Ranking[0].PlayerName)
	s.False(s.scheduler.Pending(key))

	delay, ok := s.scheduler.Delay("advance:" + string(s.roomID()))
	s.Require().True(ok)
	s.Equal(5*time.Second, delay)
}

func (s *GatewaySuite) TestQuestionTimeout() {
	s.setupTwoPlayers()
	q := s.startTrivia()
	s.answer("c1", q.Question.ID, "A", 5)

	s.fire("question:" + string(s.roomID()))

	s.Equal(1, s.transport.count("c2", model.EventQuestionEnded))
	s.True(s.scheduler.Pending("advance:" + string(s.roomID())))
}

func (s *GatewaySuite) TestOfflinePlayerDoesNotHoldQuestion() {
	s.setupTwoPlayers()
	q := s.startTrivia()
	s.answer("c1", q.Question.ID, "A", 5)

	s.gateway.Disconnect("c2")
	s.flush()

	s.Equal(1, s.transport.count("c1", model.EventQuestionEnded))
}

func (s *GatewaySuite) TestNextQuestionFromHost() {
	s.setupTwoPlayers()
	s.startTrivia()
	advance := "advance:" + string(s.roomID())

	s.send("c1", model.Command{Type: model.CommandNextQuestion})
	s.Equal(1, s.transport.count("c2", model.EventQuestionEnded))
	s.True(s.scheduler.Pending(advance))

	s.send("c1", model.Command{Type: model.CommandNextQuestion})
	s.False(s.scheduler.Pending(advance))
	s.Equal("q2", s.lastQuestion("c2").Question.ID)
	s.Equal(1, s.lastQuestion("c2").QuestionIndex)
}

func (s *GatewaySuite) TestNextQuestionRequiresHost() {
	s.setupTwoPlayers()
	s.startTrivia()

	s.send("c2", model.Command{Type: model.CommandNextQuestion})

	s.Equal(model.ErrNotHost.Error(), s.lastError("c2"))
	s.Equal(0, s.transport.count("c2", model.EventQuestionEnded))
}

func (s *GatewaySuite) TestStaleTimeoutIsIgnored() {
	s.setupTwoPlayers()
	s.startTrivia()
	roomID := s.roomID()

	// q1's timeout arriving after the host moved on must not close q2
	s.send("c1", model.Command{Type: model.CommandNextQuestion})
	s.send("c1", model.Command{Type: model.CommandNextQuestion})
	s.Require().Equal("q2", s.lastQuestion("c2").Question.ID)
	s.transport.reset()

	s.gateway.loop.Post(func(ctx context.Context) {
		if s.gateway.isOpenQuestion(ctx, roomID, "q1", model.TriviaStateQuestionActive) {
			s.gateway.endQuestion(ctx, roomID)
		}
	})
	s.flush()

	s.Equal(0, s.transport.count("c1", model.EventQuestionEnded))
}

func (s *GatewaySuite) TestLateJoinerReceivesOpenQuestion() {
	s.setupTwoPlayers()
	s.startTrivia()

	s.join("c3", "ABC234", "Mia", "")

	s.Equal("q1", s.lastQuestion("c3").Question.ID)
	s.answer("c3", "q1", "A", 1)
	s.Equal(model.ErrNotScoredPlayer.Error(), s.lastError("c3"))
}

// The full party: Ana creates and claims, Luis joins, three questions, Ana wins
func (s *GatewaySuite) TestFullTriviaSession() {
	s.setupTwoPlayers()
	roomID := s.roomID()
	q := s.startTrivia()

	for i := 0; i < 3; i++ {
		s.Equal(fmt.Sprintf("q%d", i+1), q.Question.ID)
		s.answer("c1", q.Question.ID, "A", 2)
		s.answer("c2", q.Question.ID, "C", 4)
		s.Equal(i+1, s.transport.count("c1", model.EventQuestionEnded))

		s.fire("advance:" + string(roomID))
		if i < 2 {
			q = s.lastQuestion("c1")
		}
	}

	ev, ok := s.transport.last("c2", model.EventTriviaEnded)
	s.Require().True(ok)
	ended := ev.Payload.(model.TriviaEndedPayload)
	s.Require().NotNil(ended.Winner)
	s.Equal("Ana", ended.Winner.Name)
	s.Require().Len(ended.FinalScores, 2)
	s.Equal(3*145, ended.FinalScores[0].Score)
	s.Equal(3, ended.FinalScores[0].CorrectAnswers)
	s.Equal(0, ended.FinalScores[1].Score)
	s.Empty(s.scheduler.Keys())

	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	s.Equal(model.TriviaStateWaiting, view.State)

	// A new session can start once the last one is over
	s.transport.reset()
	s.startTrivia()
}

// Sweep tests

func (s *GatewaySuite) TestSweepRemovesAbandonedRooms() {
	s.createRoom("ABC234", 4)
	s.clock.Advance(2 * time.Hour)

	s.gateway.loop.Post(s.gateway.sweep)
	s.flush()

	_, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *GatewaySuite) TestListRooms() {
	s.createRoom("ABC234", 4)
	s.createRoom("XYZ789", 4)

	views, err := s.gateway.ListRooms(context.Background())

	s.Require().NoError(err)
	s.Len(views, 2)
}

func (s *GatewaySuite) roomID() model.RoomID {
	view, err := s.gateway.GetRoom(context.Background(), "ABC234")
	s.Require().NoError(err)
	return view.ID
}
