// Package describe drafts short menu descriptions with a generative model.
package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var ErrEmptyName = errors.New("item name is required")

type Describer interface {
	Describe(ctx context.Context, itemName string) (string, error)
}

// Prompt builds the drafting prompt for a menu item.
func Prompt(itemName string) string {
	return fmt.Sprintf(
		"Crie uma descrição curta e apetitosa para um item de cardápio de cafeteria chamado %q. "+
			"A descrição deve ter no máximo 20 palavras e destacar o sabor e a qualidade.",
		itemName,
	)
}

// GeminiDescriber generates descriptions using Google's Gemini API.
type GeminiDescriber struct {
	client *genai.Client
	model  string
}

func NewGeminiDescriber(ctx context.Context, apiKey, model string) (*GeminiDescriber, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiDescriber{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiDescriber) Describe(ctx context.Context, itemName string) (string, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return "", ErrEmptyName
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(itemName)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty description")
	}
	return text, nil
}
