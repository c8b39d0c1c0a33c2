package scoring

import (
	"math"
	"sort"

	"github.com/mcoot/partyrooms/internal/model"
)

const (
	// BasePoints is awarded for any correct answer
	BasePoints = 100
	// MaxSpeedBonus is added for an instant correct answer
	MaxSpeedBonus = 50
)

// Service computes answer scores and rankings for trivia sessions
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// ClampTimeUsed bounds a reported answer time to [0, timeLimit]
func ClampTimeUsed(timeUsed float64, timeLimit int) float64 {
	limit := float64(timeLimit)
	if math.IsNaN(timeUsed) || timeUsed < 0 {
		return 0
	}
	if timeUsed > limit {
		return limit
	}
	return timeUsed
}

// ScoreAnswer returns the points for an answer. Wrong answers score 0;
// correct ones score BasePoints plus a linear speed bonus.
func (s *Service) ScoreAnswer(isCorrect bool, timeUsed float64, timeLimit int) int {
	if !isCorrect {
		return 0
	}
	if timeLimit <= 0 {
		return BasePoints
	}
	used := ClampTimeUsed(timeUsed, timeLimit)
	limit := float64(timeLimit)
	bonus := math.Floor(((limit - used) / limit) * MaxSpeedBonus)
	return BasePoints + int(bonus)
}

// RecordAnswer folds one answer into a player's running tally
func (s *Service) RecordAnswer(ps *model.PlayerScore, points int, isCorrect bool, timeUsed float64) {
	ps.TotalAnswers++
	if isCorrect {
		ps.CorrectAnswers++
	}
	ps.Score += points
	ps.LastAnswerTime = timeUsed
	// Incremental mean
	ps.AverageTime += (timeUsed - ps.AverageTime) / float64(ps.TotalAnswers)
}

// Rank returns scores sorted by score descending, ties broken by lower
// average time and then by the order given in joinOrder.
func (s *Service) Rank(scores map[model.PlayerID]*model.PlayerScore, joinOrder []model.PlayerID) []model.PlayerScore {
	position := make(map[model.PlayerID]int, len(joinOrder))
	for i, id := range joinOrder {
		position[id] = i
	}

	ranking := make([]model.PlayerScore, 0, len(scores))
	for _, ps := range scores {
		ranking = append(ranking, *ps)
	}

	orderOf := func(id model.PlayerID) int {
		if p, ok := position[id]; ok {
			return p
		}
		return len(joinOrder)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AverageTime != b.AverageTime {
			return a.AverageTime < b.AverageTime
		}
		if orderOf(a.PlayerID) != orderOf(b.PlayerID) {
			return orderOf(a.PlayerID) < orderOf(b.PlayerID)
		}
		return a.PlayerID < b.PlayerID
	})
	return ranking
}

// Interface for dependency injection
type ServiceInterface interface {
	ScoreAnswer(isCorrect bool, timeUsed float64, timeLimit int) int
	RecordAnswer(ps *model.PlayerScore, points int, isCorrect bool, timeUsed float64)
	Rank(scores map[model.PlayerID]*model.PlayerScore, joinOrder []model.PlayerID) []model.PlayerScore
}

var _ ServiceInterface = (*Service)(nil)
