package template

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"promptsmith/model"
	"promptsmith/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(storage.NewMemoryStore(0))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func userTemplate(id string) Template {
	return Template{
		ID:   id,
		Name: "custom " + id,
		Content: []MessageTemplate{
			{Role: model.RoleSystem, Content: "be brief"},
			{Role: model.RoleUser, Content: "opt: {{prompt}}"},
		},
		Metadata: Metadata{TemplateType: TypeText2Image, Language: "en", LastModified: 42},
	}
}

func TestBuiltinsLoaded(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	want := map[string]Type{
		IDGeneralOptimize:      TypeText2Image,
		IDCreativeOptimize:     TypeText2Image,
		IDPhotographyOptimize:  TypeText2Image,
		IDChineseOptimize:      TypeText2Image,
		IDImage2PromptGeneral:  TypeImage2Prompt,
		IDOutputFormatOptimize: TypeOptimize,
	}
	for id, typ := range want {
		tpl, err := m.GetTemplate(ctx, id)
		if err != nil {
			t.Errorf("GetTemplate(%s): %v", id, err)
			continue
		}
		if !tpl.Builtin || !m.IsBuiltin(id) {
			t.Errorf("%s not flagged as built-in", id)
		}
		if tpl.Metadata.TemplateType != typ {
			t.Errorf("%s type = %q, want %q", id, tpl.Metadata.TemplateType, typ)
		}
	}

	tpl, _ := m.GetTemplate(ctx, IDOutputFormatOptimize)
	if !strings.Contains(tpl.Content[1].Content, "{{originalPrompt}}") {
		t.Error("output-format-optimize lost its {{originalPrompt}} placeholder")
	}
	img, _ := m.GetTemplate(ctx, IDImage2PromptGeneral)
	if !strings.Contains(img.Content[1].Content, ImageMarker) {
		t.Error("image2prompt-general has no image marker")
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.GetTemplate(context.Background(), "missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestDeleteBuiltinAlwaysFails(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for id := range m.builtins {
		err := m.DeleteTemplate(ctx, id)
		if !errors.Is(err, ErrBuiltinImmutable) {
			t.Errorf("DeleteTemplate(%s) = %v", id, err)
			continue
		}
		if err.Error() != "cannot delete built-in template: "+id {
			t.Errorf("error text = %q", err.Error())
		}
	}

	// Still fails when a user override exists.
	if _, err := m.SaveTemplate(ctx, userTemplate(IDGeneralOptimize)); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteTemplate(ctx, IDGeneralOptimize); !errors.Is(err, ErrBuiltinImmutable) {
		t.Errorf("DeleteTemplate on overridden built-in = %v", err)
	}
}

func TestSaveTemplateStampsLastModified(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	tpl := userTemplate("mine")
	tpl.Metadata.LastModified = 1
	saved, err := m.SaveTemplate(ctx, tpl)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Metadata.LastModified != fixed.UnixMilli() {
		t.Errorf("returned LastModified = %d", saved.Metadata.LastModified)
	}

	got, _ := m.GetTemplate(ctx, "mine")
	if got.Metadata.LastModified != fixed.UnixMilli() {
		t.Errorf("stored LastModified = %d, want %d", got.Metadata.LastModified, fixed.UnixMilli())
	}

	// Saving again refreshes it.
	later := fixed.Add(time.Hour)
	m.now = func() time.Time { return later }
	got.Metadata.LastModified = fixed.Add(-time.Hour).UnixMilli()
	if _, err := m.SaveTemplate(ctx, *got); err != nil {
		t.Fatal(err)
	}
	got, _ = m.GetTemplate(ctx, "mine")
	if got.Metadata.LastModified != later.UnixMilli() {
		t.Errorf("resave LastModified = %d, want %d", got.Metadata.LastModified, later.UnixMilli())
	}
}

func TestSaveTemplateValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tpl  Template
	}{
		{"no id", Template{Content: []MessageTemplate{{Role: model.RoleUser, Content: "x"}}}},
		{"no messages", Template{ID: "x"}},
		{"bad role", Template{ID: "x", Content: []MessageTemplate{{Role: "tool", Content: "x"}}}},
		{"bad type", Template{ID: "x", Content: []MessageTemplate{{Role: model.RoleUser}}, Metadata: Metadata{TemplateType: "video"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.SaveTemplate(ctx, tt.tpl); !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("err = %v, want ErrInvalidTemplate", err)
			}
		})
	}
}

func TestUserOverrideWins(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	override := userTemplate(IDCreativeOptimize)
	if _, err := m.SaveTemplate(ctx, override); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetTemplate(ctx, IDCreativeOptimize)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != override.Name || got.Builtin {
		t.Errorf("GetTemplate returned %q (builtin=%v), want the user override", got.Name, got.Builtin)
	}

	list, _ := m.ListTemplates(ctx)
	count := 0
	for _, tpl := range list {
		if tpl.ID == IDCreativeOptimize {
			count++
			if tpl.Name != override.Name {
				t.Errorf("ListTemplates kept the built-in over the override")
			}
		}
	}
	if count != 1 {
		t.Errorf("id appears %d times in ListTemplates", count)
	}
	if len(list) != len(m.builtins) {
		t.Errorf("len(list) = %d, want %d", len(list), len(m.builtins))
	}

	if err := m.ResetTemplate(ctx, IDCreativeOptimize); err != nil {
		t.Fatal(err)
	}
	got, _ = m.GetTemplate(ctx, IDCreativeOptimize)
	if !got.Builtin {
		t.Error("ResetTemplate did not restore the built-in")
	}
	if err := m.ResetTemplate(ctx, "mine"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("ResetTemplate(non built-in) = %v", err)
	}
}

func TestListTemplatesSortedAndFiltered(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.SaveTemplate(ctx, userTemplate("aaa-first")); err != nil {
		t.Fatal(err)
	}
	list, err := m.ListTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("not sorted at %d: %s >= %s", i, list[i-1].ID, list[i].ID)
		}
	}
	if list[0].ID != "aaa-first" {
		t.Errorf("first = %s", list[0].ID)
	}

	images, _ := m.ListTemplatesByType(ctx, TypeImage2Prompt)
	if len(images) != 1 || images[0].ID != IDImage2PromptGeneral {
		t.Errorf("ListTemplatesByType(image2prompt) = %+v", images)
	}
}

func TestDeleteUserTemplate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, _ = m.SaveTemplate(ctx, userTemplate("mine"))
	if err := m.DeleteTemplate(ctx, "mine"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetTemplate(ctx, "mine"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("deleted template still resolves: %v", err)
	}
	if err := m.DeleteTemplate(ctx, "mine"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	data, err := m.ExportYAML(ctx, IDImage2PromptGeneral)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "isBuiltin") || strings.Contains(string(data), "Builtin") {
		t.Error("export leaked the built-in flag")
	}

	// Importing a built-in export creates an override of the same id.
	imported, err := m.ImportYAML(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	if imported.ID != IDImage2PromptGeneral || imported.Builtin {
		t.Errorf("imported = %s builtin=%v", imported.ID, imported.Builtin)
	}
	original := m.builtins[IDImage2PromptGeneral]
	if len(imported.Content) != len(original.Content) || imported.Content[0].Content != original.Content[0].Content {
		t.Error("content changed across export/import")
	}

	anon, err := m.ImportYAML(ctx, []byte("name: anon\ncontent:\n  - role: user\n    content: \"{{prompt}}\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(anon.ID, "user-") {
		t.Errorf("generated id = %q", anon.ID)
	}

	if _, err := m.ImportYAML(ctx, []byte("content: [")); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("malformed YAML = %v", err)
	}
}
