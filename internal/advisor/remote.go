package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"side-stacker-server/internal/domain"
)

const systemPrompt = "You are an expert Side-Stacker game player. Analyze positions strategically and suggest optimal moves."

const promptTemplate = `You are playing a Side-Stacker game (like Connect 4, but pieces stack from sides).
Board is 7x7. Players take turns adding pieces to rows from left (L) or right (R) side.
Goal: Get 4 consecutive pieces in any direction (horizontal, vertical, diagonal).

Current board state (X=Player1, O=AI/You, _=empty):
%s
Available moves: %s
Format: (row, side) where row is 0-6, side is L or R

You are O (Player 2). Analyze the position and choose the BEST strategic move.

Consider:
1. Creating multiple threats
2. Controlling center positions
3. Setting up future winning combinations
4. Preventing opponent threats
5. Building connected pieces

Respond with ONLY the move in format: (row, side)
Example: (3, L) or (1, R)`

var movePattern = regexp.MustCompile(`\((\d+),\s*([LR])\)`)

// Remote asks an OpenAI-compatible chat completion endpoint for a move.
// A missing API key makes it permanently unavailable.
type Remote struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewRemote(baseURL, apiKey, model string, timeout time.Duration) *Remote {
	return &Remote{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *Remote) Suggest(ctx context.Context, board domain.Board, moves []domain.Move) (domain.Move, bool) {
	if r.apiKey == "" {
		return domain.Move{}, false
	}

	prompt := fmt.Sprintf(promptTemplate, FormatBoard(board), FormatMoves(moves))
	body, err := json.Marshal(chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   8,
		Temperature: 0.3,
	})
	if err != nil {
		return domain.Move{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Move{}, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("[ADVISOR] Suggestion request failed: %v", err)
		return domain.Move{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[ADVISOR] Suggestion request returned status %d", resp.StatusCode)
		return domain.Move{}, false
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Choices) == 0 {
		return domain.Move{}, false
	}

	return ParseSuggestion(parsed.Choices[0].Message.Content)
}

// ParseSuggestion extracts a "(row, side)" pair from free-form text.
func ParseSuggestion(text string) (domain.Move, bool) {
	match := movePattern.FindStringSubmatch(text)
	if match == nil {
		return domain.Move{}, false
	}
	row, err := strconv.Atoi(match[1])
	if err != nil || row < 0 || row >= domain.Rows {
		return domain.Move{}, false
	}
	return domain.Move{Row: row, Side: domain.Side(match[2])}, true
}
