package questions

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/validation"
)

// BankQuestion is an entry in the local fallback bank
type BankQuestion struct {
	Question         string   `json:"question" validate:"required"`
	CorrectAnswer    string   `json:"correctAnswer" validate:"required"`
	IncorrectAnswers []string `json:"incorrectAnswers" validate:"min=1,dive,required"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type bankFile struct {
	Questions []BankQuestion `json:"questions" validate:"min=1,dive"`
}

// DefaultBank is used whenever the provider is unreachable and no bank file is configured
var DefaultBank = []BankQuestion{
	{
		Question:         "What is the capital of Australia?",
		CorrectAnswer:    "Canberra",
		IncorrectAnswers: []string{"Sydney", "Melbourne", "Perth"},
		Category:         "Geography",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Which planet is known as the Red Planet?",
		CorrectAnswer:    "Mars",
		IncorrectAnswers: []string{"Venus", "Jupiter", "Mercury"},
		Category:         "Science",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "How many sides does a hexagon have?",
		CorrectAnswer:    "6",
		IncorrectAnswers: []string{"5", "7", "8"},
		Category:         "Mathematics",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Who painted the Mona Lisa?",
		CorrectAnswer:    "Leonardo da Vinci",
		IncorrectAnswers: []string{"Michelangelo", "Raphael", "Donatello"},
		Category:         "Art",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "What is the chemical symbol for gold?",
		CorrectAnswer:    "Au",
		IncorrectAnswers: []string{"Ag", "Gd", "Go"},
		Category:         "Science",
		Difficulty:       model.DifficultyMedium,
	},
	{
		Question:         "In which year did the Berlin Wall fall?",
		CorrectAnswer:    "1989",
		IncorrectAnswers: []string{"1987", "1991", "1985"},
		Category:         "History",
		Difficulty:       model.DifficultyMedium,
	},
	{
		Question:         "What is the largest ocean on Earth?",
		CorrectAnswer:    "Pacific Ocean",
		IncorrectAnswers: []string{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean"},
		Category:         "Geography",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Which language has the most native speakers?",
		CorrectAnswer:    "Mandarin Chinese",
		IncorrectAnswers: []string{"English", "Spanish", "Hindi"},
		Category:         "General Knowledge",
		Difficulty:       model.DifficultyMedium,
	},
	{
		Question:         "What is the smallest prime number?",
		CorrectAnswer:    "2",
		IncorrectAnswers: []string{"1", "3", "0"},
		Category:         "Mathematics",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Which element has the atomic number 1?",
		CorrectAnswer:    "Hydrogen",
		IncorrectAnswers: []string{"Helium", "Oxygen", "Carbon"},
		Category:         "Science",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Who wrote \"One Hundred Years of Solitude\"?",
		CorrectAnswer:    "Gabriel García Márquez",
		IncorrectAnswers: []string{"Mario Vargas Llosa", "Julio Cortázar", "Isabel Allende"},
		Category:         "Literature",
		Difficulty:       model.DifficultyMedium,
	},
	{
		Question:         "What is the hardest natural substance?",
		CorrectAnswer:    "Diamond",
		IncorrectAnswers: []string{"Quartz", "Granite", "Topaz"},
		Category:         "Science",
		Difficulty:       model.DifficultyEasy,
	},
	{
		Question:         "Which country hosted the first FIFA World Cup in 1930?",
		CorrectAnswer:    "Uruguay",
		IncorrectAnswers: []string{"Brazil", "Italy", "Argentina"},
		Category:         "Sports",
		Difficulty:       model.DifficultyHard,
	},
	{
		Question:         "What is the speed of light in a vacuum, approximately in km/s?",
		CorrectAnswer:    "300,000",
		IncorrectAnswers: []string{"150,000", "1,000,000", "30,000"},
		Category:         "Science",
		Difficulty:       model.DifficultyHard,
	},
}

// LoadBankFile reads a JSON bank of the form {"questions": [...]}
func LoadBankFile(path string) ([]BankQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file bankFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	if err := validation.Check(file, model.ErrNoQuestions); err != nil {
		return nil, fmt.Errorf("question bank %s: %w", path, err)
	}
	return file.Questions, nil
}
