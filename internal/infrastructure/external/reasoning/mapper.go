package reasoning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE MAPPING AND VALIDATION
// The service's output is untrusted until it passes JSON Schema validation.
// Any extraction, parse, or validation failure is a mapping error, which the
// strategy reports upward as a synthesis failure.
// ══════════════════════════════════════════════════════════════════════════════

// planSchemaJSON is the contract the response must satisfy. The same schema is
// embedded in the request so the service knows the target shape.
const planSchemaJSON = `{
	"type": "object",
	"required": ["blocks", "rationale"],
	"properties": {
		"blocks": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["start", "end", "type", "reasoning", "confidence"],
				"properties": {
					"start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
					"end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
					"type": {"type": "string", "enum": ["task", "habit", "break"]},
					"task_id": {"type": "string"},
					"habit_id": {"type": "string"},
					"reasoning": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		},
		"rationale": {"type": "string"}
	}
}`

// Mapper validates raw service output and converts it to a planner proposal.
type Mapper struct {
	schema *jsonschema.Schema
}

// NewMapper compiles the plan schema. Compilation of the embedded schema
// cannot fail at runtime unless the constant itself is broken, so the error
// is returned for the caller to treat as a startup failure.
func NewMapper() (*Mapper, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(planSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse plan schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("plan.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add plan schema: %w", err)
	}
	schema, err := compiler.Compile("plan.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile plan schema: %w", err)
	}

	return &Mapper{schema: schema}, nil
}

// OutputSchema returns the schema as a generic document for request embedding.
func (m *Mapper) OutputSchema() map[string]interface{} {
	var doc map[string]interface{}
	// The constant parsed at construction time; this cannot fail.
	_ = json.Unmarshal([]byte(planSchemaJSON), &doc)
	return doc
}

// MapProposal extracts, validates and converts the raw response body. Clock
// strings are anchored onto the context's target date in the user's zone.
func (m *Mapper) MapProposal(raw []byte, pc *planner.Context) (*planner.Proposal, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if err := m.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response failed schema validation: %w", err)
	}

	var dto PlanResponseDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	blocks := make([]planner.ProposedBlock, 0, len(dto.Blocks))
	for i, b := range dto.Blocks {
		start, err := timeutil.ParseClock(b.Start)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		end, err := timeutil.ParseClock(b.End)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("block %d: end %s not after start %s", i, b.End, b.Start)
		}
		blocks = append(blocks, planner.ProposedBlock{
			Start:      start.At(pc.Day, pc.Location),
			End:        end.At(pc.Day, pc.Location),
			Type:       schedule.BlockType(b.Type),
			TaskID:     b.TaskID,
			HabitID:    b.HabitID,
			Reasoning:  b.Reasoning,
			Confidence: shared.Confidence(b.Confidence).Clamp(),
		})
	}

	return &planner.Proposal{
		Blocks:    blocks,
		Rationale: dto.Rationale,
		Deferred:  pc.DeferredOverdue,
		Source:    planner.SourceAI,
	}, nil
}

// ExtractJSON pulls the first JSON object out of the raw body. Reasoning
// services sometimes wrap their structured output in markdown code fences or
// surrounding prose; everything outside the outermost braces is discarded.
func ExtractJSON(raw []byte) ([]byte, error) {
	s := strings.TrimSpace(string(raw))

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	return []byte(s[start : end+1]), nil
}
