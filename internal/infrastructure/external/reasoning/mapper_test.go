package reasoning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

func mapperContext() *planner.Context {
	return &planner.Context{
		UserID:   "user-1",
		DateKey:  "2026-03-02",
		Day:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}
}

const validPlanJSON = `{
	"blocks": [
		{
			"start": "09:00",
			"end": "10:30",
			"type": "task",
			"task_id": "t1",
			"reasoning": "morning focus",
			"confidence": 0.9
		},
		{
			"start": "10:30",
			"end": "10:45",
			"type": "break",
			"reasoning": "recover",
			"confidence": 0.8
		}
	],
	"rationale": "front-load the hard work"
}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain object", input: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced json", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", input: "Here is the plan:\n{\"a\":1}\nHope it helps!", want: `{"a":1}`},
		{name: "no object", input: "I could not produce a plan.", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMapProposal_ValidResponse(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	proposal, err := m.MapProposal([]byte(validPlanJSON), mapperContext())
	require.NoError(t, err)

	assert.Equal(t, planner.SourceAI, proposal.Source)
	assert.Equal(t, "front-load the hard work", proposal.Rationale)
	require.Len(t, proposal.Blocks, 2)

	first := proposal.Blocks[0]
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), first.End)
	assert.Equal(t, schedule.BlockTypeTask, first.Type)
	assert.Equal(t, "t1", first.TaskID)
	assert.Equal(t, shared.Confidence(0.9), first.Confidence)

	assert.Equal(t, schedule.BlockTypeBreak, proposal.Blocks[1].Type)
}

func TestMapProposal_FencedResponse(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	raw := []byte("```json\n" + validPlanJSON + "\n```")
	proposal, err := m.MapProposal(raw, mapperContext())

	require.NoError(t, err)
	assert.Len(t, proposal.Blocks, 2)
}

func TestMapProposal_AnchorsInUserZone(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	almaty, err := time.LoadLocation("Asia/Almaty")
	require.NoError(t, err)

	pc := mapperContext()
	pc.Day = time.Date(2026, 3, 2, 0, 0, 0, 0, almaty)
	pc.Location = almaty

	proposal, err := m.MapProposal([]byte(validPlanJSON), pc)
	require.NoError(t, err)

	first := proposal.Blocks[0]
	assert.Equal(t, 9, first.Start.Hour())
	assert.Equal(t, almaty.String(), first.Start.Location().String())
}

func TestMapProposal_SchemaRejections(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"missing rationale", `{"blocks": []}`},
		{"missing blocks", `{"rationale": "x"}`},
		{"bad clock format", `{"blocks":[{"start":"9am","end":"10:00","type":"task","reasoning":"x","confidence":0.5}],"rationale":"x"}`},
		{"unknown block type", `{"blocks":[{"start":"09:00","end":"10:00","type":"meeting","reasoning":"x","confidence":0.5}],"rationale":"x"}`},
		{"confidence above one", `{"blocks":[{"start":"09:00","end":"10:00","type":"break","reasoning":"x","confidence":1.5}],"rationale":"x"}`},
		{"not json at all", `the dog ate my schedule`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.MapProposal([]byte(tt.body), mapperContext())
			assert.Error(t, err)
		})
	}
}

func TestMapProposal_RejectsInvertedWindow(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	body := `{"blocks":[{"start":"11:00","end":"10:00","type":"break","reasoning":"x","confidence":0.5}],"rationale":"x"}`
	_, err = m.MapProposal([]byte(body), mapperContext())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not after start")
}

func TestMapProposal_CarriesDeferred(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	pc := mapperContext()
	pc.DeferredOverdue = []planner.DeferredTask{{ID: "old", Title: "old", Reason: "overdue"}}

	proposal, err := m.MapProposal([]byte(validPlanJSON), pc)
	require.NoError(t, err)

	assert.Equal(t, pc.DeferredOverdue, proposal.Deferred)
}

func TestMapper_OutputSchema(t *testing.T) {
	m, err := NewMapper()
	require.NoError(t, err)

	doc := m.OutputSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Contains(t, doc, "properties")
}
