/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package judge

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

// verdict is the JSON object the judge model is asked to return.
type verdict struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}
