package main

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/parleyhq/parley/pkg/agentdef"
	"github.com/parleyhq/parley/pkg/history"
	"github.com/parleyhq/parley/pkg/utils"
)

func (r *repl) handlePersonaCommand(args string) {
	sub, rest := splitArg(args)
	switch strings.ToLower(sub) {
	case "", "list":
		printPersonaList(r.agents, rest)
	case "templates":
		printPersonaTemplates()
	case "create":
		r.createPersonaWizard()
	case "use":
		r.usePersona(rest)
	case "view":
		category, name := splitArg(rest)
		if category == "" || name == "" {
			fmt.Println("Usage: /agent view <category> <name>")
			return
		}
		def, ok := r.agents.Get(category, name, "")
		if !ok {
			fmt.Printf("Agent not found: %s/%s\n", category, name)
			return
		}
		printPersonaView(def)
	case "delete":
		r.deletePersona(rest)
	default:
		fmt.Printf("Unknown agent subcommand: %s\n", sub)
		fmt.Println("Available subcommands: list, templates, create, use, view, delete")
	}
}

func (r *repl) usePersona(rest string) {
	category, name := splitArg(rest)
	if category == "" || name == "" {
		fmt.Println("Usage: /agent use <category> <name>")
		return
	}
	def, ok := r.agents.Get(category, name, "")
	if !ok {
		fmt.Printf("Agent not found: %s/%s\n", category, name)
		return
	}

	r.activePersona = def.ID()
	r.sess.SetSystemPrompt(def.Prompt)
	if def.Model != "" {
		r.model = def.Model
	}
	r.temperature = def.Temperature
	r.maxTokens = def.MaxTokens

	fmt.Printf("✓ Switched to agent: %s\n", def.Name)
	if def.Model != "" {
		fmt.Printf("  Model: %s\n", def.Model)
	}
	r.record(history.KindCommand, "Switched to agent "+def.ID())
}

func (r *repl) deletePersona(rest string) {
	category, name := splitArg(rest)
	if category == "" || name == "" {
		fmt.Println("Usage: /agent delete <category> <name>")
		return
	}
	answer := strings.ToLower(r.promptLine(fmt.Sprintf("Delete agent %s/%s? [y/N]: ", category, name)))
	if answer != "y" && answer != "yes" {
		fmt.Println("Deletion cancelled.")
		return
	}
	deleted, err := r.agents.Delete(category, name, "")
	if err != nil {
		fmt.Printf("Error deleting agent: %v\n", err)
		return
	}
	if !deleted {
		fmt.Printf("Agent not found: %s/%s\n", category, name)
		return
	}
	fmt.Printf("✓ Deleted agent: %s/%s\n", category, name)
	if r.activePersona == category+"/"+agentdef.Slug(name) {
		r.activePersona = ""
		r.temperature = nil
		r.maxTokens = nil
		r.sess.SetSystemPrompt(r.cfg.SystemPrompt)
		fmt.Println("Reverted to the default system prompt.")
	}
}

func printPersonaList(mgr *agentdef.Manager, category string) {
	defs := mgr.List("", category)
	if len(defs) == 0 {
		fmt.Println("No agents found. Try '/agent templates' or '/agent create'.")
		return
	}

	byCategory := map[string][]agentdef.Definition{}
	for _, def := range defs {
		byCategory[def.Category] = append(byCategory[def.Category], def)
	}

	fmt.Println("\nAvailable agents:")
	for _, cat := range slices.Sorted(maps.Keys(byCategory)) {
		fmt.Printf("\n  %s\n", strings.ToUpper(cat))
		list := byCategory[cat]
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, def := range list {
			fmt.Printf("    • %s [%s]\n", def.Name, def.Scope)
			if def.Description != "" {
				fmt.Printf("      %s\n", def.Description)
			}
		}
	}
	fmt.Println()
}

func printPersonaTemplates() {
	byCategory := map[string][]agentdef.Definition{}
	for _, name := range agentdef.TemplateNames() {
		tmpl, _ := agentdef.Template(name)
		byCategory[tmpl.Category] = append(byCategory[tmpl.Category], tmpl)
	}

	fmt.Println("\nAvailable agent templates:")
	for _, cat := range slices.Sorted(maps.Keys(byCategory)) {
		fmt.Printf("\n  %s\n", strings.ToUpper(cat))
		for _, tmpl := range byCategory[cat] {
			fmt.Printf("    • %s\n", tmpl.Name)
			fmt.Printf("      %s\n", tmpl.Description)
		}
	}
	fmt.Println("\nUse '/agent create' to build an agent from a template.")
}

func printPersonaView(def *agentdef.Definition) {
	fmt.Printf("\n%s\n", def.Name)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Category: %s\n", def.Category)
	fmt.Printf("Description: %s\n", def.Description)
	fmt.Printf("Version: %s\n", def.Version)
	fmt.Printf("Scope: %s\n", def.Scope)
	if def.Model != "" {
		fmt.Printf("Model: %s\n", def.Model)
	}
	if def.Temperature != nil {
		fmt.Printf("Temperature: %g\n", *def.Temperature)
	}
	if def.MaxTokens != nil {
		fmt.Printf("Max tokens: %d\n", *def.MaxTokens)
	}
	if len(def.Tools) > 0 {
		fmt.Printf("Tools: %s\n", strings.Join(def.Tools, ", "))
	}
	fmt.Printf("\nPrompt:\n%s\n\n", def.Prompt)
}

func (r *repl) createPersonaWizard() {
	fmt.Println("\nParley agent creator")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Println("\nStarting point:")
	fmt.Println("  1. Blank agent")
	fmt.Println("  2. Agent from template")

	var def agentdef.Definition
	fromTemplate := false
	if r.promptLine("Choose (1 or 2) [1]: ") == "2" {
		names := agentdef.TemplateNames()
		fmt.Println("\nAvailable templates:")
		for i, name := range names {
			tmpl, _ := agentdef.Template(name)
			fmt.Printf("  %d. %s - %s\n", i+1, tmpl.Name, tmpl.Description)
		}
		idx, err := strconv.Atoi(r.promptLine("\nSelect template (number): "))
		if err != nil || idx < 1 || idx > len(names) {
			fmt.Println("Invalid choice, starting blank.")
		} else {
			def, _ = agentdef.Template(names[idx-1])
			fromTemplate = true
			fmt.Printf("\nStarting from template: %s\n", def.Name)
		}
	}

	fmt.Println("\nAgent details:")
	def.Name = r.promptDefault("Agent name", def.Name)
	def.Category = r.promptDefault("Category (analysis/writing/development/custom)", def.Category)
	def.Description = r.promptDefault("Description", def.Description)
	if def.Name == "" || def.Category == "" {
		fmt.Println("Name and category are required.")
		return
	}

	fmt.Println("\nOptional settings:")
	def.Model = r.promptDefault("Model (blank for default)", def.Model)
	if raw := r.promptLine("Temperature (0.0-2.0, blank for default): "); raw != "" {
		if temp, err := strconv.ParseFloat(raw, 64); err == nil && temp >= 0 && temp <= 2 {
			def.Temperature = &temp
		} else {
			fmt.Println("Invalid temperature, skipping")
		}
	}
	if raw := r.promptLine("Max tokens (blank for default): "); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			def.MaxTokens = &n
		} else {
			fmt.Println("Invalid max tokens, skipping")
		}
	}
	if raw := r.promptLine("Tools (comma-separated, blank for all): "); raw != "" {
		def.Tools = nil
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				def.Tools = append(def.Tools, t)
			}
		}
	}

	fmt.Println("\nStorage scope:")
	fmt.Println("  1. User (~/.parley/agents)")
	fmt.Println("  2. Project (./.parley/agents)")
	if r.promptLine("Choose (1 or 2) [1]: ") == "2" {
		def.Scope = agentdef.ScopeProject
	} else {
		def.Scope = agentdef.ScopeUser
	}

	if fromTemplate && def.Prompt != "" {
		fmt.Println("\nAgent prompt (from template):")
		fmt.Println(utils.Truncate(def.Prompt, 200))
		answer := strings.ToLower(r.promptLine("Edit prompt? [y/N]: "))
		if answer == "y" || answer == "yes" {
			fmt.Println("Enter the new prompt, finishing with a line containing only END:")
			def.Prompt = r.readMultiline()
		}
	} else {
		fmt.Println("\nEnter the system prompt, finishing with a line containing only END:")
		def.Prompt = r.readMultiline()
	}
	if strings.TrimSpace(def.Prompt) == "" {
		fmt.Println("A prompt is required.")
		return
	}

	path, err := r.agents.Create(&def)
	if err != nil {
		fmt.Printf("Error creating agent: %v\n", err)
		return
	}
	fmt.Println("\n✓ Agent created successfully!")
	fmt.Printf("Location: %s\n", path)
	fmt.Printf("Use it with: /agent use %s %s\n", def.Category, def.Name)
	r.record(history.KindCommand, "Created agent "+def.ID())
}
