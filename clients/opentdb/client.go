// Package opentdb fetches ready-made trivia questions from the Open
// Trivia Database (https://opentdb.com) for seeding quiz sessions.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/quizdeck/quizdeck/internal/models"
)

const defaultBaseURL = "https://opentdb.com"

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchRequest narrows the question pull. Zero values mean "any".
type FetchRequest struct {
	Amount     int
	CategoryID int
	Difficulty string // easy, medium, hard
}

type apiResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// FetchQuestions pulls multiple-choice questions and maps them to the
// local question shape. Answer order is shuffled so the correct option
// doesn't always land in the same slot.
func (c *Client) FetchQuestions(ctx context.Context, req FetchRequest) ([]models.Question, error) {
	amount := req.Amount
	if amount <= 0 {
		amount = 10
	}

	params := url.Values{}
	params.Set("amount", fmt.Sprint(amount))
	params.Set("type", "multiple")
	if req.CategoryID > 0 {
		params.Set("category", fmt.Sprint(req.CategoryID))
	}
	if req.Difficulty != "" {
		params.Set("difficulty", req.Difficulty)
	}

	body, err := c.get(ctx, "/api.php?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode trivia response: %w", err)
	}
	if decoded.ResponseCode != 0 {
		return nil, fmt.Errorf("trivia API returned response code %d", decoded.ResponseCode)
	}

	questions := make([]models.Question, 0, len(decoded.Results))
	for i, result := range decoded.Results {
		options := make([]models.Option, 0, len(result.IncorrectAnswers)+1)
		options = append(options, models.Option{
			Text:      html.UnescapeString(result.CorrectAnswer),
			IsCorrect: true,
		})
		for _, wrong := range result.IncorrectAnswers {
			options = append(options, models.Option{Text: html.UnescapeString(wrong)})
		}
		rand.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		questions = append(questions, models.Question{
			Text:     html.UnescapeString(result.Question),
			Options:  options,
			Position: i,
		})
	}
	return questions, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return responseBody, nil
}
