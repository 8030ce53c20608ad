package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	maxPostingChars    = 20000
)

type LLMService struct {
	// Client is reused across requests.
	Client llms.Model
}

// NewLLMService connects to Gemini with the given key.
func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrFeatureDisabled
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(defaultGeminiModel),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

const jobExtractionPrompt = `
Tu es un assistant qui extrait les informations d'une offre de stage ou d'alternance.

### INSTRUCTIONS:
1. Analyse le texte pour identifier l'offre elle-même.
2. Ignore les menus, pieds de page, offres similaires et publicités.
3. Réponds uniquement avec un JSON valide, sans bloc de code markdown.

### OUTPUT SCHEMA:
{
    "name": "Intitulé du poste",
    "description": "Résumé des missions et du profil recherché, sans HTML",
    "skills": ["Liste", "des", "compétences"],
    "location": "Ville ou 'Remote'"
}

### CONSTRAINT:
Si une information est absente, laisse une chaîne vide ou une liste vide. N'invente rien.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns a raw posting into the fields of a job.
func (s *LLMService) ExtractJobDetails(ctx context.Context, raw string) (*dtos.ExtractedJob, error) {
	if s == nil || s.Client == nil {
		return nil, ErrFeatureDisabled
	}
	raw = truncatePosting(raw, maxPostingChars)

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobExtractionPrompt, raw))
	if err != nil {
		return nil, fmt.Errorf("job extraction: %w", err)
	}

	var job dtos.ExtractedJob
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &job); err != nil {
		return nil, fmt.Errorf("job extraction: malformed model output: %w", err)
	}
	if job.Skills == nil {
		job.Skills = []string{}
	}
	return &job, nil
}

// truncatePosting cuts s to at most max bytes without splitting a character.
func truncatePosting(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// stripCodeFence removes a ```json ... ``` wrapper that models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
