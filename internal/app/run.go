package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/runtime"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", cfg.Command)

	switch cfg.Command {
	case CommandServe:
		return a.runServe(ctx, cfg)
	case CommandValidate:
		return a.runValidate(ctx, cfg)
	case CommandInspect:
		return a.runInspect(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

// runValidate loads a form and an optional data document, runs every visible
// rule plus the form validator, and prints the failures. A form that fails
// validation is a non-zero exit.
func (a *App) runValidate(ctx context.Context, cfg *Config) error {
	raw, err := os.ReadFile(cfg.FormPath)
	if err != nil {
		return fmt.Errorf("failed to read form file: %w", err)
	}

	var data map[string]any
	if cfg.DataPath != "" {
		rawData, err := os.ReadFile(cfg.DataPath)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
		if err := json.Unmarshal(rawData, &data); err != nil {
			return fmt.Errorf("failed to parse data file: %w", err)
		}
	}

	store := runtime.NewStore(ctx, runtime.Options{
		Registry: a.registry,
		Language: cfg.Language,
	})
	defer store.Close(ctx)

	if err := store.ApplyStringForm(ctx, raw, data); err != nil {
		return fmt.Errorf("failed to load form: %w", err)
	}

	failures := store.Validate(ctx)
	if len(failures) == 0 {
		fmt.Fprintln(a.outW, "valid")
		return nil
	}

	keys := make([]string, 0, len(failures))
	for key := range failures {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(a.outW, "%s: %s\n", key, failures[key])
	}
	return fmt.Errorf("form is invalid: %d failing component(s)", len(failures))
}

// runInspect parses a form envelope and prints a summary of its tree,
// languages and actions without building a live store.
func (a *App) runInspect(ctx context.Context, cfg *Config) error {
	raw, err := os.ReadFile(cfg.FormPath)
	if err != nil {
		return fmt.Errorf("failed to read form file: %w", err)
	}
	env, err := formstore.ParseEnvelope(ctx, raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "version: %s\n", env.Version)
	if len(env.Languages) > 0 {
		fmt.Fprint(a.outW, "languages:")
		for _, lang := range env.Languages {
			fmt.Fprintf(a.outW, " %s", lang.Tag())
		}
		fmt.Fprintln(a.outW)
	}
	if len(env.Actions) > 0 {
		names := make([]string, 0, len(env.Actions))
		for name := range env.Actions {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(a.outW, "actions: %v\n", names)
	}
	a.printNode(env.Form, 0)
	return nil
}

func (a *App) printNode(node *formstore.Component, depth int) {
	if node == nil {
		return
	}
	for i := 0; i < depth; i++ {
		fmt.Fprint(a.outW, "  ")
	}
	fmt.Fprintf(a.outW, "%s (%s)", node.Key, node.Type)
	if _, known := a.registry.Model(node.Type); !known {
		fmt.Fprint(a.outW, " [unregistered]")
	}
	fmt.Fprintln(a.outW)
	for _, child := range node.Children {
		a.printNode(child, depth+1)
	}
	if node.Modal != nil {
		a.printNode(node.Modal, depth+1)
	}
}
