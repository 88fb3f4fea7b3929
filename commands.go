package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"promptsmith/api"
	"promptsmith/image"
	"promptsmith/mcp"
	"promptsmith/model"
	"promptsmith/prompt"
	"promptsmith/ui"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runOptimize(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("optimize")
	style := fs.String("style", "", "Optimization style: general, creative, photography, design, chinese-aesthetics")
	templateID := fs.String("template", "", "Template id, overrides --style")
	modelKey := fs.String("model", "", "Model key, defaults to the configured model")
	stream := fs.Bool("stream", false, "Print the result as it arrives")
	copyResult := fs.Bool("copy", false, "Copy the result to the clipboard")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return usageErr("no prompt given")
	}
	if *style != "" && !slices.Contains(prompt.Styles(), prompt.Style(*style)) {
		return usageErr("unknown style %q", *style)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := prompt.Request{
		TargetPrompt: text,
		ModelKey:     *modelKey,
		TemplateID:   *templateID,
		Style:        prompt.Style(*style),
	}

	var result string
	if *stream {
		err = a.OptimizeStream(ctx, req, model.StreamHandlers{
			OnChunk:    func(chunk string) { fmt.Fprint(out, chunk) },
			OnComplete: func(content string) { result = strings.TrimSpace(content) },
		})
		fmt.Fprintln(out)
		if err != nil {
			return err
		}
	} else {
		resp, err := a.Optimize(ctx, req)
		if err != nil {
			return err
		}
		result = resp.OptimizedPrompt
		fmt.Fprintln(out, result)
	}

	if *copyResult {
		return copyToClipboard(result)
	}
	return nil
}

func runImage(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("image")
	modelKey := fs.String("model", "", "Vision model key, defaults to the configured model")
	templateID := fs.String("template", "", "image2prompt template id")
	instructions := fs.String("instructions", "", "Extra instructions for the description")
	stream := fs.Bool("stream", false, "Print the result as it arrives")
	copyResult := fs.Bool("copy", false, "Copy the result to the clipboard")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("image takes exactly one file path or URL")
	}

	src, err := image.ResolveSource(fs.Arg(0))
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := image.Request{
		ImageURL:     src,
		ModelKey:     *modelKey,
		TemplateID:   *templateID,
		Instructions: *instructions,
	}

	var result string
	if *stream {
		err = a.ImageToPromptStream(ctx, req, model.StreamHandlers{
			OnChunk:    func(chunk string) { fmt.Fprint(out, chunk) },
			OnComplete: func(content string) { result = strings.TrimSpace(content) },
		})
		fmt.Fprintln(out)
		if err != nil {
			return err
		}
	} else {
		resp, err := a.ImageToPrompt(ctx, req)
		if err != nil {
			return err
		}
		result = resp.Prompt
		fmt.Fprintln(out, result)
	}

	if *copyResult {
		return copyToClipboard(result)
	}
	return nil
}

func copyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

func runProviders(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		return usageErr("providers takes no arguments")
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rows := [][]string{}
	for _, p := range a.Registry.Providers() {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			yesNo(p.RequiresAPIKey),
			yesNo(p.SupportsDynamicModels),
			p.DefaultBaseURL,
		})
	}
	printTable(out, []string{"ID", "NAME", "API KEY", "LIVE MODELS", "BASE URL"}, rows)
	return nil
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", "", "Listen address, defaults to [server] addr or "+api.DefaultAddr)
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	listen := *addr
	if listen == "" {
		listen = a.Config.Server.Addr
	}
	srv := api.NewServer(a, listen)
	fmt.Fprintf(out, "promptsmith API listening on http://%s\n", srv.Addr())
	return srv.Run(ctx)
}

func runMCP(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		return usageErr("mcp takes no arguments")
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcp.NewServer(a, Version).ServeStdio(ctx)
}

func runTUI(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		return usageErr("tui takes no arguments")
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(
		ui.NewAppView(a, Version),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
