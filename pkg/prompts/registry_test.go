package prompts

import (
	"strings"
	"testing"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

func TestLoadShippedConfiguration(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, id := range AgentIDs() {
		tmpl, err := r.Get(id)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", id, err)
		}
		if tmpl.ID != id {
			t.Errorf("Get(%s).ID = %s", id, tmpl.ID)
		}
		if tmpl.Role == "" || tmpl.Goal == "" || tmpl.Backstory == "" {
			t.Errorf("agent %s has empty fields", id)
		}
	}

	for _, id := range TaskIDs() {
		tmpl, err := r.Task(id)
		if err != nil {
			t.Fatalf("Task(%s) failed: %v", id, err)
		}
		if tmpl.Description == "" || tmpl.ExpectedOutput == "" {
			t.Errorf("task %s has empty fields", id)
		}
	}
}

func TestShippedPlaceholdersAreRecognized(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	check := func(owner, field, text string) {
		for _, name := range Placeholders(text) {
			if name != PlaceholderIndustry && name != PlaceholderCountry {
				t.Errorf("%s %s references unknown placeholder %q", owner, field, name)
			}
		}
	}

	for _, a := range r.Agents() {
		check(a.ID, "role", a.Role)
		check(a.ID, "goal", a.Goal)
		check(a.ID, "backstory", a.Backstory)
	}
	for _, tk := range r.Tasks() {
		check(tk.ID, "description", tk.Description)
		check(tk.ID, "expected_output", tk.ExpectedOutput)
	}
}

func TestGetUnknownAgent(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	_, err = r.Get("unknown_agent")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	_, err = r.Task("unknown_task")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for task, got %v", err)
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	first, err := Load()
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	for _, id := range AgentIDs() {
		a, _ := first.Get(id)
		b, _ := second.Get(id)
		if a != b {
			t.Errorf("agent %s differs between loads", id)
		}
	}
	for _, id := range TaskIDs() {
		a, _ := first.Task(id)
		b, _ := second.Task(id)
		if a != b {
			t.Errorf("task %s differs between loads", id)
		}
	}
}

func TestCanonicalOrdering(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	agents := r.Agents()
	for i, id := range AgentIDs() {
		if agents[i].ID != id {
			t.Errorf("agent %d = %s, want %s", i, agents[i].ID, id)
		}
	}
	tasks := r.Tasks()
	for i, id := range TaskIDs() {
		if tasks[i].ID != id {
			t.Errorf("task %d = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestRenderAgent(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tmpl, err := r.RenderAgent(AgentLeadGenerator, "fintech", "Germany")
	if err != nil {
		t.Fatalf("RenderAgent failed: %v", err)
	}
	for field, text := range map[string]string{
		"role": tmpl.Role, "goal": tmpl.Goal, "backstory": tmpl.Backstory,
	} {
		if strings.Contains(text, "{industry}") || strings.Contains(text, "{country}") {
			t.Errorf("rendered %s still contains placeholders", field)
		}
	}
	if !strings.Contains(tmpl.Goal, "fintech") || !strings.Contains(tmpl.Goal, "Germany") {
		t.Errorf("rendered goal missing substituted values: %q", tmpl.Goal)
	}

	_, err = r.RenderAgent(AgentLeadGenerator, "fintech", "")
	if !errors.IsCode(err, errors.CodeMissingParameter) {
		t.Errorf("expected MISSING_PARAMETER, got %v", err)
	}
}

func TestRenderTask(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	tmpl, err := r.RenderTask(TaskLeadQualification, "renewable energy", "Canada")
	if err != nil {
		t.Fatalf("RenderTask failed: %v", err)
	}
	if strings.Contains(tmpl.Description, "{industry}") {
		t.Errorf("rendered description still contains placeholders")
	}
	if !strings.Contains(tmpl.Description, "renewable energy") {
		t.Errorf("rendered description missing industry value")
	}
}

func TestParseRejectsUnknownPlaceholder(t *testing.T) {
	agents := []byte(`
lead_generator:
  role: Researcher
  goal: Find {industry} leads in {region}
  backstory: A researcher.
contact_agent:
  role: Contacts
  goal: Find contacts
  backstory: A people finder.
lead_qualifier:
  role: Qualifier
  goal: Score leads
  backstory: An analyst.
sales_manager:
  role: Manager
  goal: Compile report
  backstory: A manager.
`)
	tasks := validTasksYAML()

	_, err := Parse(agents, tasks)
	if !errors.IsCode(err, errors.CodeMalformedTemplate) {
		t.Errorf("expected MALFORMED_TEMPLATE, got %v", err)
	}
}

func TestParseRejectsMissingAgent(t *testing.T) {
	agents := []byte(`
lead_generator:
  role: Researcher
  goal: Find leads
  backstory: A researcher.
`)
	_, err := Parse(agents, validTasksYAML())
	if !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestParseRejectsTaskWithUnknownAgent(t *testing.T) {
	tasks := []byte(`
lead_generation_task:
  agent: nonexistent
  description: d
  expected_output: o
contact_research_task:
  agent: contact_agent
  description: d
  expected_output: o
lead_qualification_task:
  agent: lead_qualifier
  description: d
  expected_output: o
sales_management_task:
  agent: sales_manager
  description: d
  expected_output: o
`)
	_, err := Parse(validAgentsYAML(), tasks)
	if !errors.IsCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func validAgentsYAML() []byte {
	return []byte(`
lead_generator:
  role: Researcher
  goal: Find {industry} leads in {country}
  backstory: A researcher.
contact_agent:
  role: Contacts
  goal: Find contacts
  backstory: A people finder.
lead_qualifier:
  role: Qualifier
  goal: Score leads
  backstory: An analyst.
sales_manager:
  role: Manager
  goal: Compile report
  backstory: A manager.
`)
}

func validTasksYAML() []byte {
	return []byte(`
lead_generation_task:
  agent: lead_generator
  description: Find companies.
  expected_output: A list of companies.
contact_research_task:
  agent: contact_agent
  description: Find contacts.
  expected_output: Contacts per company.
lead_qualification_task:
  agent: lead_qualifier
  description: Score companies.
  expected_output: Scored companies.
sales_management_task:
  agent: sales_manager
  description: Compile the report.
  expected_output: Final JSON report.
`)
}
