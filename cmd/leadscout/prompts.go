package main

import (
	"fmt"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/config"
	"github.com/leadscout-ai/leadscout/pkg/prompts"
)

func runPrompts(global globalFlags, cfg *config.Config, args []string) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		fatal(err)
	}

	if len(args) == 0 {
		fatal(fmt.Errorf("usage: leadscout prompts <list|show> [id]"))
	}

	switch args[0] {
	case "list":
		listPrompts(global, registry)
	case "show":
		if len(args) != 2 {
			fatal(fmt.Errorf("usage: leadscout prompts show <id>"))
		}
		showPrompt(global, registry, args[1])
	default:
		fatal(fmt.Errorf("unknown prompts subcommand %q", args[0]))
	}
}

func listPrompts(global globalFlags, registry *prompts.Registry) {
	if global.JSON {
		printJSON(map[string]any{
			"agents": registry.Agents(),
			"tasks":  registry.Tasks(),
		})
		return
	}

	writer := newTabWriter()
	writeRow(writer, "KIND", "ID", "SUMMARY")
	for _, agent := range registry.Agents() {
		writeRow(writer, "agent", agent.ID, truncateCell(agent.Role, 60))
	}
	for _, task := range registry.Tasks() {
		writeRow(writer, "task", task.ID, truncateCell(task.Description, 60))
	}
	writer.Flush()
}

func showPrompt(global globalFlags, registry *prompts.Registry, id string) {
	if agent, err := registry.Get(id); err == nil {
		if global.JSON {
			printJSON(agent)
			return
		}
		fmt.Printf("Agent %s\n\n", agent.ID)
		fmt.Printf("Role:\n%s\n\n", strings.TrimSpace(agent.Role))
		fmt.Printf("Goal:\n%s\n\n", strings.TrimSpace(agent.Goal))
		fmt.Printf("Backstory:\n%s\n", strings.TrimSpace(agent.Backstory))
		return
	}

	task, err := registry.Task(id)
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(task)
		return
	}
	fmt.Printf("Task %s (agent: %s)\n\n", task.ID, task.Agent)
	fmt.Printf("Description:\n%s\n\n", strings.TrimSpace(task.Description))
	fmt.Printf("Expected output:\n%s\n", strings.TrimSpace(task.ExpectedOutput))
}
