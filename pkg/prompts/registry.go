// Package prompts holds the agent and task prompt templates that drive the
// lead generation crew. The registry is immutable after load and safe for
// unsynchronized concurrent reads.
package prompts

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

//go:embed config/agents.yaml config/tasks.yaml
var configFS embed.FS

// Canonical agent identifiers, in the order the workflow runs them.
const (
	AgentLeadGenerator = "lead_generator"
	AgentContact       = "contact_agent"
	AgentLeadQualifier = "lead_qualifier"
	AgentSalesManager  = "sales_manager"
)

// Canonical task identifiers, in execution order.
const (
	TaskLeadGeneration    = "lead_generation_task"
	TaskContactResearch   = "contact_research_task"
	TaskLeadQualification = "lead_qualification_task"
	TaskSalesManagement   = "sales_management_task"
)

// AgentIDs returns the canonical agent ordering expected by the workflow.
func AgentIDs() []string {
	return []string{AgentLeadGenerator, AgentContact, AgentLeadQualifier, AgentSalesManager}
}

// TaskIDs returns the canonical task ordering expected by the workflow.
func TaskIDs() []string {
	return []string{TaskLeadGeneration, TaskContactResearch, TaskLeadQualification, TaskSalesManagement}
}

// AgentTemplate is one role definition consumed by the crew.
type AgentTemplate struct {
	ID        string `yaml:"-"`
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskTemplate describes one unit of work assigned to an agent.
type TaskTemplate struct {
	ID             string `yaml:"-"`
	Agent          string `yaml:"agent"`
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

// Registry holds the validated agent and task templates.
type Registry struct {
	agents map[string]AgentTemplate
	tasks  map[string]TaskTemplate
}

// Load builds a Registry from the embedded configuration.
func Load() (*Registry, error) {
	agents, err := configFS.ReadFile("config/agents.yaml")
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "embedded agents config missing", err)
	}
	tasks, err := configFS.ReadFile("config/tasks.yaml")
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "embedded tasks config missing", err)
	}
	return Parse(agents, tasks)
}

// LoadFiles builds a Registry from external YAML files, used to override the
// embedded prompt configuration.
func LoadFiles(agentsPath, tasksPath string) (*Registry, error) {
	agents, err := os.ReadFile(agentsPath)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "cannot read agents config", err).
			WithContext("path", agentsPath)
	}
	tasks, err := os.ReadFile(tasksPath)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "cannot read tasks config", err).
			WithContext("path", tasksPath)
	}
	return Parse(agents, tasks)
}

// Parse validates raw agents and tasks YAML and builds a Registry.
// All four canonical agents and tasks must be present with non-empty fields,
// and every template string may reference only the recognized placeholders.
func Parse(agentsYAML, tasksYAML []byte) (*Registry, error) {
	var rawAgents map[string]AgentTemplate
	if err := yaml.Unmarshal(agentsYAML, &rawAgents); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "agents config is not valid YAML", err)
	}
	var rawTasks map[string]TaskTemplate
	if err := yaml.Unmarshal(tasksYAML, &rawTasks); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "tasks config is not valid YAML", err)
	}

	r := &Registry{
		agents: make(map[string]AgentTemplate, len(rawAgents)),
		tasks:  make(map[string]TaskTemplate, len(rawTasks)),
	}

	for _, id := range AgentIDs() {
		tmpl, ok := rawAgents[id]
		if !ok {
			return nil, errors.New(errors.CodeInvalidInput, "agent template missing", nil).
				WithContext("agent_id", id)
		}
		tmpl.ID = id
		if err := validateAgent(tmpl); err != nil {
			return nil, err
		}
		r.agents[id] = tmpl
	}

	for _, id := range TaskIDs() {
		tmpl, ok := rawTasks[id]
		if !ok {
			return nil, errors.New(errors.CodeInvalidInput, "task template missing", nil).
				WithContext("task_id", id)
		}
		tmpl.ID = id
		if err := validateTask(tmpl, r.agents); err != nil {
			return nil, err
		}
		r.tasks[id] = tmpl
	}

	return r, nil
}

func validateAgent(tmpl AgentTemplate) error {
	fields := map[string]string{
		"role":      tmpl.Role,
		"goal":      tmpl.Goal,
		"backstory": tmpl.Backstory,
	}
	for name, text := range fields {
		if text == "" {
			return errors.New(errors.CodeInvalidInput, fmt.Sprintf("agent %s field is empty", name), nil).
				WithContext("agent_id", tmpl.ID)
		}
		if err := ValidateTemplate(text); err != nil {
			return errors.AsLeadScoutError(err).
				WithContext("agent_id", tmpl.ID).
				WithContext("field", name)
		}
	}
	return nil
}

func validateTask(tmpl TaskTemplate, agents map[string]AgentTemplate) error {
	if tmpl.Description == "" || tmpl.ExpectedOutput == "" {
		return errors.New(errors.CodeInvalidInput, "task description and expected_output are required", nil).
			WithContext("task_id", tmpl.ID)
	}
	if _, ok := agents[tmpl.Agent]; !ok {
		return errors.New(errors.CodeInvalidInput, "task references unknown agent", nil).
			WithContext("task_id", tmpl.ID).
			WithContext("agent_id", tmpl.Agent)
	}
	for name, text := range map[string]string{
		"description":     tmpl.Description,
		"expected_output": tmpl.ExpectedOutput,
	} {
		if err := ValidateTemplate(text); err != nil {
			return errors.AsLeadScoutError(err).
				WithContext("task_id", tmpl.ID).
				WithContext("field", name)
		}
	}
	return nil
}

// Get returns the agent template for the given identifier.
func (r *Registry) Get(id string) (AgentTemplate, error) {
	tmpl, ok := r.agents[id]
	if !ok {
		return AgentTemplate{}, errors.New(errors.CodeNotFound, "unknown agent template", nil).
			WithContext("agent_id", id)
	}
	return tmpl, nil
}

// Task returns the task template for the given identifier.
func (r *Registry) Task(id string) (TaskTemplate, error) {
	tmpl, ok := r.tasks[id]
	if !ok {
		return TaskTemplate{}, errors.New(errors.CodeNotFound, "unknown task template", nil).
			WithContext("task_id", id)
	}
	return tmpl, nil
}

// Agents returns all agent templates in canonical order.
func (r *Registry) Agents() []AgentTemplate {
	out := make([]AgentTemplate, 0, len(r.agents))
	for _, id := range AgentIDs() {
		out = append(out, r.agents[id])
	}
	return out
}

// Tasks returns all task templates in canonical order.
func (r *Registry) Tasks() []TaskTemplate {
	out := make([]TaskTemplate, 0, len(r.tasks))
	for _, id := range TaskIDs() {
		out = append(out, r.tasks[id])
	}
	return out
}

// RenderAgent returns a copy of the agent template with all placeholders
// resolved against the supplied values.
func (r *Registry) RenderAgent(id, industry, country string) (AgentTemplate, error) {
	tmpl, err := r.Get(id)
	if err != nil {
		return AgentTemplate{}, err
	}
	if tmpl.Role, err = Render(tmpl.Role, industry, country); err != nil {
		return AgentTemplate{}, err
	}
	if tmpl.Goal, err = Render(tmpl.Goal, industry, country); err != nil {
		return AgentTemplate{}, err
	}
	if tmpl.Backstory, err = Render(tmpl.Backstory, industry, country); err != nil {
		return AgentTemplate{}, err
	}
	return tmpl, nil
}

// RenderTask returns a copy of the task template with all placeholders
// resolved against the supplied values.
func (r *Registry) RenderTask(id, industry, country string) (TaskTemplate, error) {
	tmpl, err := r.Task(id)
	if err != nil {
		return TaskTemplate{}, err
	}
	if tmpl.Description, err = Render(tmpl.Description, industry, country); err != nil {
		return TaskTemplate{}, err
	}
	if tmpl.ExpectedOutput, err = Render(tmpl.ExpectedOutput, industry, country); err != nil {
		return TaskTemplate{}, err
	}
	return tmpl, nil
}
