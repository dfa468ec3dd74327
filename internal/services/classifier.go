package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"wastetrack-backend/internal/models"
)

// Classification is the structured result of analyzing a waste photo.
type Classification struct {
	Category          models.WasteCategory `json:"category"`
	Confidence        float64              `json:"confidence"`
	RiskLevel         models.RiskLevel     `json:"risk_level"`
	RecommendedAction string               `json:"recommended_action"`
	Instructions      []string             `json:"instructions"`
}

// rawClassification mirrors the JSON returned by the model before
// normalization to the known enums.
type rawClassification struct {
	Category          string   `json:"category"`
	Confidence        float64  `json:"confidence"`
	RiskLevel         string   `json:"risk_level"`
	RecommendedAction string   `json:"recommended_action"`
	Instructions      []string `json:"instructions"`
}

// ClassifierService wraps the OpenAI client. If client is nil,
// classification falls back to a conservative default.
type ClassifierService struct {
	client *openai.Client
}

// NewClassifierService creates the service. Pass an empty apiKey to disable calls.
func NewClassifierService(apiKey string) *ClassifierService {
	if apiKey == "" {
		return &ClassifierService{client: nil}
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &ClassifierService{client: &c}
}

// Enabled reports whether the service will actually call the model.
func (s *ClassifierService) Enabled() bool {
	return s.client != nil
}

func defaultClassification() *Classification {
	return &Classification{
		Category:          models.CategoryGeneral,
		Confidence:        0,
		RiskLevel:         models.RiskLow,
		RecommendedAction: "Dispose of in general waste. Manual review recommended.",
		Instructions:      []string{"Place in a sealed bag", "Keep away from children and pets"},
	}
}

// Classify sends the image to GPT-4o Vision and returns a structured
// classification. The model output is normalized to the known category
// and risk enums; unrecognized values degrade to general/low.
func (s *ClassifierService) Classify(ctx context.Context, img []byte) (*Classification, error) {
	if s.client == nil {
		return defaultClassification(), nil
	}

	b64 := base64.StdEncoding.EncodeToString(img)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type": "string",
				"enum": []string{"organic", "recyclable", "hazardous", "electronic", "general", "medical"},
			},
			"confidence": map[string]string{"type": "number"},
			"risk_level": map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high", "critical"},
			},
			"recommended_action": map[string]string{"type": "string"},
			"instructions": map[string]any{
				"type":  "array",
				"items": map[string]string{"type": "string"},
			},
		},
		"required": []string{
			"category",
			"confidence",
			"risk_level",
			"recommended_action",
			"instructions",
		},
		"additionalProperties": false,
	}

	fn := shared.FunctionDefinitionParam{
		Name:        "classify_waste",
		Description: openai.String("Return the waste category, confidence, risk level and handling instructions for the photographed waste."),
		Strict:      openai.Bool(true),
		Parameters:  schema,
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(`Classify the waste in this photo.

Return JSON by calling classify_waste(strict).
Rules:
1. category is the single best-fitting type of waste visible.
2. confidence is your certainty in the category, between 0 and 1.
3. risk_level reflects handling danger: batteries, chemicals, sharps and medical waste are high or critical.
4. recommended_action is one sentence telling a citizen what to do with it.
5. instructions are 2-4 short handling steps.

If the photo does not clearly show waste, use category "general", confidence below 0.3 and risk_level "low".`),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL:    "data:image/jpeg;base64," + b64,
							Detail: "low",
						}),
					},
				},
			},
		}},
		Tools: []openai.ChatCompletionToolParam{{
			Function: fn,
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: "classify_waste",
				},
			},
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("openai: no function call returned")
	}

	var raw rawClassification
	if err := json.Unmarshal(
		[]byte(resp.Choices[0].Message.ToolCalls[0].Function.Arguments),
		&raw,
	); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}

	return normalizeClassification(raw), nil
}

func normalizeClassification(raw rawClassification) *Classification {
	out := &Classification{
		Category:          models.WasteCategory(strings.ToLower(strings.TrimSpace(raw.Category))),
		Confidence:        raw.Confidence,
		RiskLevel:         models.RiskLevel(strings.ToLower(strings.TrimSpace(raw.RiskLevel))),
		RecommendedAction: strings.TrimSpace(raw.RecommendedAction),
		Instructions:      raw.Instructions,
	}

	if !models.ValidCategory(out.Category) {
		log.Printf("⚠️ Unknown waste category %q, falling back to general", raw.Category)
		out.Category = models.CategoryGeneral
	}
	if !models.ValidRiskLevel(out.RiskLevel) {
		log.Printf("⚠️ Unknown risk level %q, falling back to low", raw.RiskLevel)
		out.RiskLevel = models.RiskLow
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	if out.RecommendedAction == "" {
		out.RecommendedAction = defaultClassification().RecommendedAction
	}
	if out.Instructions == nil {
		out.Instructions = []string{}
	}

	return out
}
