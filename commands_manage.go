package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"

	"promptsmith/app"
	"promptsmith/config"
	"promptsmith/history"
	"promptsmith/model"
	"promptsmith/modelconfig"
	"promptsmith/template"
)

type subcommand func(ctx context.Context, a *app.App, args []string, out io.Writer) error

// dispatch opens the app and runs the named subcommand from table.
func dispatch(ctx context.Context, group string, table map[string]subcommand, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageErr("%s needs a subcommand", group)
	}
	sub, ok := table[args[0]]
	if !ok {
		return usageErr("unknown %s subcommand %q", group, args[0])
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return sub(ctx, a, args[1:], out)
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageErr("expected exactly one %s", what)
	}
	return args[0], nil
}

// models

func runModels(ctx context.Context, args []string, out io.Writer) error {
	return dispatch(ctx, "models", map[string]subcommand{
		"list":     modelsList,
		"add":      modelsAdd,
		"remove":   modelsRemove,
		"enable":   modelsSetEnabled(true),
		"disable":  modelsSetEnabled(false),
		"default":  modelsDefault,
		"discover": modelsDiscover,
		"test":     modelsTest,
	}, args, out)
}

func modelsList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("models list")
	all := fs.Bool("all", false, "Include disabled models")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	list := a.Models.EnabledModels
	if *all {
		list = a.Models.ListModels
	}
	models, err := list(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(out, "No models configured. Add one with: promptsmith models add --provider <id> --model <id>")
		return nil
	}

	defaultKey := a.DefaultModel()
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		key := m.ID
		if key == defaultKey {
			key += " *"
		}
		rows = append(rows, []string{
			key,
			m.Name,
			m.Provider.ID,
			yesNo(m.Model.Capabilities.SupportsVision),
			yesNo(m.Enabled),
		})
	}
	printTable(out, []string{"KEY", "NAME", "PROVIDER", "VISION", "ENABLED"}, rows)
	return nil
}

func modelsAdd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("models add")
	providerID := fs.String("provider", "", "Provider id, see `promptsmith providers`")
	modelID := fs.String("model", "", "Vendor model id")
	name := fs.String("name", "", "Display name")
	baseURL := fs.String("base-url", "", "Override the provider's base URL")
	apiKey := fs.String("api-key", "", "API key, stored in the credential store")
	makeDefault := fs.Bool("default", false, "Use this model when none is given")
	disabled := fs.Bool("disabled", false, "Add the model disabled")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if *providerID == "" || *modelID == "" {
		return usageErr("--provider and --model are required")
	}

	creds := a.Config.CredentialStore
	key := *apiKey
	if key == "" && creds != nil {
		key = creds.Get(*providerID)
	}

	cfg, err := modelconfig.NewConfig(a.Registry, *providerID, *modelID,
		model.Connection{APIKey: key, BaseURL: *baseURL},
		modelconfig.Options{Name: *name, Disabled: *disabled})
	if err != nil {
		return err
	}
	if err := a.Models.SaveModel(ctx, *cfg); err != nil {
		return err
	}

	dataDir := a.Config.DataDir()
	entry := config.ModelEntry{Provider: *providerID, Model: *modelID, Name: *name, BaseURL: *baseURL}
	if err := config.UpsertModelEntry(dataDir, entry); err != nil {
		return err
	}
	if *apiKey != "" && creds != nil {
		creds.Set(*providerID, *apiKey)
		if err := creds.Save(dataDir); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
	}
	if *makeDefault {
		if err := config.SetDefaultModel(dataDir, cfg.ID); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Added %s (%s)\n", cfg.ID, cfg.Name)
	if cfg.Provider.RequiresAPIKey && key == "" {
		fmt.Fprintf(out, "Warning: %s needs an API key; rerun with --api-key\n", cfg.Provider.Name)
	}
	return nil
}

func modelsRemove(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	key, err := oneArg(args, "model key")
	if err != nil {
		return err
	}
	existing, err := a.Models.GetModel(ctx, key)
	if err != nil {
		return err
	}
	if err := a.Models.DeleteModel(ctx, key); err != nil {
		return err
	}
	if err := config.RemoveModelEntry(a.Config.DataDir(), existing.Provider.ID, existing.Model.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s\n", key)
	return nil
}

func modelsSetEnabled(enabled bool) subcommand {
	return func(ctx context.Context, a *app.App, args []string, out io.Writer) error {
		key, err := oneArg(args, "model key")
		if err != nil {
			return err
		}
		if err := a.Models.SetEnabled(ctx, key, enabled); err != nil {
			return err
		}
		state := "Disabled"
		if enabled {
			state = "Enabled"
		}
		fmt.Fprintf(out, "%s %s\n", state, key)
		return nil
	}
}

func modelsDefault(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	key, err := oneArg(args, "model key")
	if err != nil {
		return err
	}
	if _, err := a.Models.GetModel(ctx, key); err != nil {
		return err
	}
	if err := config.SetDefaultModel(a.Config.DataDir(), key); err != nil {
		return err
	}
	fmt.Fprintf(out, "Default model is now %s\n", key)
	return nil
}

func modelsDiscover(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("models discover")
	configKey := fs.String("config", "", "Query the vendor live with this model's connection")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	providerID, err := oneArg(fs.Args(), "provider id")
	if err != nil {
		return err
	}
	if _, ok := a.Registry.Provider(providerID); !ok {
		return fmt.Errorf("%w: %s", modelconfig.ErrProviderUnknown, providerID)
	}

	models := a.Registry.StaticModels(providerID)
	if *configKey != "" {
		cfg, err := a.Models.GetModel(ctx, *configKey)
		if err != nil {
			return err
		}
		if models, err = a.LLM.FetchModels(ctx, providerID, cfg); err != nil {
			return err
		}
	}
	if len(models) == 0 {
		fmt.Fprintf(out, "%s reports no models\n", providerID)
		return nil
	}

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		ctxLen := ""
		if m.Capabilities.MaxContextLength > 0 {
			ctxLen = strconv.Itoa(m.Capabilities.MaxContextLength)
		}
		rows = append(rows, []string{m.ID, m.Name, yesNo(m.Capabilities.SupportsVision), ctxLen})
	}
	printTable(out, []string{"ID", "NAME", "VISION", "CONTEXT"}, rows)
	return nil
}

func modelsTest(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	key, err := oneArg(args, "model key")
	if err != nil {
		return err
	}
	if err := a.LLM.TestConnection(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: OK\n", key)
	return nil
}

// templates

func runTemplates(ctx context.Context, args []string, out io.Writer) error {
	return dispatch(ctx, "templates", map[string]subcommand{
		"list":   templatesList,
		"show":   templatesShow,
		"export": templatesExport,
		"import": templatesImport,
		"delete": templatesDelete,
		"reset":  templatesReset,
	}, args, out)
}

func templatesList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("templates list")
	typ := fs.String("type", "", "Only templates of this type: optimize, text2image, image2image, image2prompt")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	var (
		templates []template.Template
		err       error
	)
	if *typ != "" {
		templates, err = a.Templates.ListTemplatesByType(ctx, template.Type(*typ))
	} else {
		templates, err = a.Templates.ListTemplates(ctx)
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		source := "user"
		if t.Builtin {
			source = "builtin"
		}
		rows = append(rows, []string{t.ID, t.Name, string(t.Metadata.TemplateType), t.Metadata.Language, source})
	}
	printTable(out, []string{"ID", "NAME", "TYPE", "LANG", "SOURCE"}, rows)
	return nil
}

func templatesShow(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := oneArg(args, "template id")
	if err != nil {
		return err
	}
	t, err := a.Templates.GetTemplate(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s, %s, v%s)\n", t.Name, t.ID, t.Metadata.TemplateType, t.Metadata.Version)
	for _, msg := range t.Content {
		fmt.Fprintf(out, "\n[%s]\n", msg.Role)
		fmt.Fprintln(out, strings.TrimRight(string(markdown.Render(msg.Content, 100, 2)), "\n"))
	}
	return nil
}

func templatesExport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("templates export")
	path := fs.String("out", "", "Write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	id, err := oneArg(fs.Args(), "template id")
	if err != nil {
		return err
	}

	data, err := a.Templates.ExportYAML(ctx, id)
	if err != nil {
		return err
	}
	if *path == "" {
		_, err = out.Write(data)
		return err
	}
	if err := os.WriteFile(config.ExpandPath(*path), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", *path, err)
	}
	fmt.Fprintf(out, "Exported %s to %s\n", id, *path)
	return nil
}

func templatesImport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	path, err := oneArg(args, "YAML file")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := a.Templates.ImportYAML(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s (%s)\n", t.ID, t.Name)
	return nil
}

func templatesDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := oneArg(args, "template id")
	if err != nil {
		return err
	}
	if err := a.Templates.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

func templatesReset(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := oneArg(args, "template id")
	if err != nil {
		return err
	}
	if err := a.Templates.ResetTemplate(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Reset %s to the built-in version\n", id)
	return nil
}

// history

func runHistory(ctx context.Context, args []string, out io.Writer) error {
	return dispatch(ctx, "history", map[string]subcommand{
		"list":   historyList,
		"search": historySearch,
		"show":   historyShow,
		"delete": historyDelete,
		"clear":  historyClear,
	}, args, out)
}

func printRecords(out io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No history")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			formatTimestamp(r.Timestamp),
			string(r.Type),
			r.ModelKey,
			oneLine(r.Output(), 60),
		})
	}
	printTable(out, []string{"ID", "TIME", "TYPE", "MODEL", "PROMPT"}, rows)
}

func historyList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("history list")
	typ := fs.String("type", "", "prompt-optimize or image-to-prompt")
	limit := fs.Int("limit", 20, "Show at most this many records, 0 for all")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	records, err := a.History.List(ctx, history.RecordType(*typ))
	if err != nil {
		return err
	}
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}
	printRecords(out, records)
	return nil
}

func historySearch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return usageErr("search needs a query")
	}
	matches, err := a.History.Search(ctx, query)
	if err != nil {
		return err
	}
	records := make([]history.Record, len(matches))
	for i, m := range matches {
		records[i] = m.Record
	}
	printRecords(out, records)
	return nil
}

func historyShow(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := oneArg(args, "record id")
	if err != nil {
		return err
	}
	r, err := a.History.Get(ctx, id)
	if err != nil {
		return err
	}

	modelLabel := r.ModelKey
	if r.ModelName != "" {
		modelLabel = fmt.Sprintf("%s (%s)", r.ModelName, r.ModelKey)
	}
	fmt.Fprintf(out, "ID:     %s\n", r.ID)
	fmt.Fprintf(out, "Time:   %s\n", formatTimestamp(r.Timestamp))
	fmt.Fprintf(out, "Type:   %s\n", r.Type)
	fmt.Fprintf(out, "Model:  %s\n", modelLabel)

	switch r.Type {
	case history.TypeImageToPrompt:
		if r.Resolution != nil {
			fmt.Fprintf(out, "Image:  %dx%d (%s)\n", r.Resolution.Width, r.Resolution.Height, r.AspectRatio)
		}
		fmt.Fprintf(out, "\n%s\n", r.Prompt)
	default:
		if r.Style != "" {
			fmt.Fprintf(out, "Style:  %s\n", r.Style)
		}
		fmt.Fprintf(out, "\nOriginal:\n%s\n\nOptimized:\n%s\n", r.OriginalPrompt, r.OptimizedPrompt)
	}
	return nil
}

func historyDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := oneArg(args, "record id")
	if err != nil {
		return err
	}
	if err := a.History.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

func historyClear(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("history clear")
	typ := fs.String("type", "", "Only clear records of this type")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if err := a.History.Clear(ctx, history.RecordType(*typ)); err != nil {
		return err
	}
	fmt.Fprintln(out, "History cleared")
	return nil
}
