package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultProviderURL is the public Open Trivia DB endpoint
const DefaultProviderURL = "https://opentdb.com"

type providerResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []providerResult `json:"results"`
}

type providerResult struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// fetchFromProvider requests multiple-choice questions and decodes them into bank entries
func (s *Source) fetchFromProvider(ctx context.Context, amount int, difficulty string) ([]BankQuestion, error) {
	endpoint, err := url.JoinPath(s.cfg.ProviderURL, "api.php")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	params.Set("type", "multiple")
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if body.ResponseCode != 0 {
		return nil, fmt.Errorf("provider response_code %d", body.ResponseCode)
	}
	if len(body.Results) < amount {
		return nil, fmt.Errorf("provider returned %d of %d questions", len(body.Results), amount)
	}

	out := make([]BankQuestion, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Question == "" || r.CorrectAnswer == "" || len(r.IncorrectAnswers) == 0 {
			return nil, fmt.Errorf("provider returned a malformed question")
		}
		incorrect := make([]string, len(r.IncorrectAnswers))
		for i, a := range r.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(a)
		}
		out = append(out, BankQuestion{
			Question:         html.UnescapeString(r.Question),
			CorrectAnswer:    html.UnescapeString(r.CorrectAnswer),
			IncorrectAnswers: incorrect,
			Category:         html.UnescapeString(r.Category),
			Difficulty:       r.Difficulty,
		})
	}
	return out, nil
}
