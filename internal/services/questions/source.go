package questions

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mcoot/partyrooms/internal/dependencies/random"
	"github.com/mcoot/partyrooms/internal/model"
)

// Config controls the external question provider
type Config struct {
	// ProviderURL is the base URL of an Open Trivia DB compatible API.
	// Empty disables the provider and always uses the local bank.
	ProviderURL string
	Timeout     time.Duration
	TimeLimit   int // seconds per question
}

// DefaultConfig returns the provider settings used in production
func DefaultConfig() Config {
	return Config{
		ProviderURL: DefaultProviderURL,
		Timeout:     5 * time.Second,
		TimeLimit:   model.DefaultQuestionTimeLimit,
	}
}

// Source supplies trivia questions, preferring the provider and falling
// back to the local bank on any failure.
type Source struct {
	cfg        Config
	httpClient *http.Client
	random     random.Random
	logger     *slog.Logger

	mu   sync.RWMutex
	bank []BankQuestion
}

// New creates a question source seeded with DefaultBank
func New(cfg Config, httpClient *http.Client, random random.Random, logger *slog.Logger) *Source {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = model.DefaultQuestionTimeLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Source{
		cfg:        cfg,
		httpClient: httpClient,
		random:     random,
		logger:     logger.With(slog.String("component", "questions")),
		bank:       DefaultBank,
	}
}

// LoadBankFromFile replaces the fallback bank with the contents of a JSON file
func (s *Source) LoadBankFromFile(path string) error {
	bank, err := LoadBankFile(path)
	if err != nil {
		return err
	}
	return s.LoadBank(bank)
}

// LoadBank replaces the fallback bank
func (s *Source) LoadBank(bank []BankQuestion) error {
	if len(bank) == 0 {
		return model.ErrNoQuestions
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = bank
	return nil
}

// BankSize returns the number of questions in the fallback bank
func (s *Source) BankSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bank)
}

// GetQuestions returns amount questions with shuffled options. Provider
// failures are logged and absorbed by the fallback bank.
func (s *Source) GetQuestions(ctx context.Context, amount int, difficulty string) ([]model.TriviaQuestion, error) {
	if amount <= 0 {
		return nil, model.ErrNoQuestions
	}

	var raw []BankQuestion
	if s.cfg.ProviderURL != "" {
		fetched, err := s.fetchFromProvider(ctx, amount, difficulty)
		if err != nil {
			s.logger.Warn("question provider failed, using local bank",
				slog.String("error", err.Error()),
				slog.Int("amount", amount),
			)
		} else {
			raw = fetched[:amount]
		}
	}

	if raw == nil {
		var err error
		raw, err = s.fromBank(amount, difficulty)
		if err != nil {
			return nil, err
		}
	}

	return lo.Map(raw, func(q BankQuestion, _ int) model.TriviaQuestion {
		return s.toQuestion(q)
	}), nil
}

// fromBank shuffles the bank and cycles it until amount questions are drawn.
// A difficulty filter is applied only when it leaves at least one question.
func (s *Source) fromBank(amount int, difficulty string) ([]BankQuestion, error) {
	s.mu.RLock()
	pool := append([]BankQuestion(nil), s.bank...)
	s.mu.RUnlock()

	if difficulty != "" {
		filtered := lo.Filter(pool, func(q BankQuestion, _ int) bool { return q.Difficulty == difficulty })
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	if len(pool) == 0 {
		return nil, model.ErrNoQuestions
	}

	s.random.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]BankQuestion, amount)
	for i := range out {
		out[i] = pool[i%len(pool)]
	}
	return out, nil
}

func (s *Source) toQuestion(q BankQuestion) model.TriviaQuestion {
	options := make([]string, 0, len(q.IncorrectAnswers)+1)
	options = append(options, q.CorrectAnswer)
	options = lo.Uniq(append(options, q.IncorrectAnswers...))
	s.random.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return model.TriviaQuestion{
		ID:            uuid.NewString(),
		Question:      q.Question,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		TimeLimit:     s.cfg.TimeLimit,
	}
}

// Interface for dependency injection
type SourceInterface interface {
	GetQuestions(ctx context.Context, amount int, difficulty string) ([]model.TriviaQuestion, error)
}

var _ SourceInterface = (*Source)(nil)
