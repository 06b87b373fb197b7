package reasoning

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// Wire shapes of the reasoning service contract. The request carries a
// serialized planning context and the output schema; the response must
// validate against that schema before anything trusts it.
// ══════════════════════════════════════════════════════════════════════════════

// PlanRequestDTO is the structured request sent to the reasoning service.
type PlanRequestDTO struct {
	// Prompt states the selection policy in natural language.
	Prompt string `json:"prompt"`

	// Context is the serialized planning input.
	Context PlanContextDTO `json:"context"`

	// OutputSchema is the JSON Schema the response blocks must satisfy.
	OutputSchema map[string]interface{} `json:"output_schema"`
}

// PlanContextDTO is the planning context as the service sees it.
type PlanContextDTO struct {
	Date        string          `json:"date"`
	Timezone    string          `json:"timezone"`
	WorkHours   string          `json:"work_hours"`
	EnergyPeak  string          `json:"energy_peak"`
	MaxMinutes  int             `json:"max_work_minutes"`
	MaxTasks    int             `json:"max_tasks_per_day"`
	Tasks       []TaskDTO       `json:"tasks"`
	Habits      []HabitDTO      `json:"habits"`
	Commitments []CommitmentDTO `json:"commitments"`
	Deferred    []DeferredDTO   `json:"deferred_overdue"`
}

// TaskDTO is one candidate task.
type TaskDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Category string `json:"category,omitempty"`
	DueAt    string `json:"due_at,omitempty"`
	Minutes  int    `json:"minutes"`
}

// HabitDTO is one due habit.
type HabitDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
	Streak  int    `json:"streak"`
}

// CommitmentDTO is one fixed window the plan must not overlap.
type CommitmentDTO struct {
	Title string `json:"title"`
	Start string `json:"start"` // "HH:MM"
	End   string `json:"end"`   // "HH:MM"
}

// DeferredDTO is an overdue task excluded from scheduling.
type DeferredDTO struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// PlanResponseDTO is the structured plan the service returns.
type PlanResponseDTO struct {
	Blocks    []BlockDTO `json:"blocks"`
	Rationale string     `json:"rationale"`
}

// BlockDTO is one proposed block. Start and end are wall clocks on the target
// date; the mapper anchors them in the user's zone.
type BlockDTO struct {
	Start      string  `json:"start"` // "HH:MM"
	End        string  `json:"end"`   // "HH:MM"
	Type       string  `json:"type"`  // task | habit | break
	TaskID     string  `json:"task_id,omitempty"`
	HabitID    string  `json:"habit_id,omitempty"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}
