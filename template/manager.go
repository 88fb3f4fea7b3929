package template

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"promptsmith/config"
	"promptsmith/storage"
)

// Built-in template ids referenced by the optimization services.
const (
	IDGeneralOptimize      = "text2image-general-optimize"
	IDCreativeOptimize     = "text2image-creative-optimize"
	IDPhotographyOptimize  = "text2image-photography-optimize"
	IDChineseOptimize      = "text2image-chinese-optimize"
	IDImage2PromptGeneral  = "image2prompt-general"
	IDOutputFormatOptimize = "output-format-optimize"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrBuiltinImmutable = errors.New("cannot delete built-in template")
	ErrInvalidTemplate  = errors.New("invalid template")
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Manager merges the embedded built-ins with user templates from the store.
type Manager struct {
	store    storage.Provider
	builtins map[string]Template
	now      func() time.Time
}

// NewManager loads the built-in templates once.
func NewManager(store storage.Provider) (*Manager, error) {
	builtins, err := loadBuiltins(builtinFS)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, builtins: builtins, now: time.Now}, nil
}

func loadBuiltins(fsys fs.FS) (map[string]Template, error) {
	files, err := fs.Glob(fsys, "builtin/*.yaml")
	if err != nil {
		return nil, err
	}

	builtins := make(map[string]Template, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("built-in %s: %w", name, err)
		}
		t.Builtin = true
		builtins[t.ID] = t
	}
	return builtins, nil
}

func (m *Manager) userTemplates(ctx context.Context) (map[string]Template, error) {
	return storage.GetData(ctx, m.store, storage.KeyTemplates, map[string]Template{})
}

// IsBuiltin reports whether id names an embedded template.
func (m *Manager) IsBuiltin(id string) bool {
	_, ok := m.builtins[id]
	return ok
}

// GetTemplate prefers a user template over the built-in with the same id.
func (m *Manager) GetTemplate(ctx context.Context, id string) (*Template, error) {
	user, err := m.userTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if t, ok := user[id]; ok {
		t.Builtin = false
		return &t, nil
	}
	if t, ok := m.builtins[id]; ok {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

// ListTemplates returns built-ins and user templates sorted by id; user
// templates replace built-ins on id collision.
func (m *Manager) ListTemplates(ctx context.Context) ([]Template, error) {
	user, err := m.userTemplates(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]Template, len(m.builtins)+len(user))
	for id, t := range m.builtins {
		merged[id] = t
	}
	for id, t := range user {
		t.Builtin = false
		merged[id] = t
	}

	list := make([]Template, 0, len(merged))
	for _, t := range merged {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ListTemplatesByType filters ListTemplates by template type.
func (m *Manager) ListTemplatesByType(ctx context.Context, t Type) ([]Template, error) {
	all, err := m.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	filtered := all[:0]
	for _, tpl := range all {
		if tpl.Metadata.TemplateType == t {
			filtered = append(filtered, tpl)
		}
	}
	return filtered, nil
}

// SaveTemplate stores t as a user template, stamping LastModified with the
// current time whatever the caller set.
func (m *Manager) SaveTemplate(ctx context.Context, t Template) (*Template, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	t.Builtin = false
	t.Metadata.LastModified = m.now().UnixMilli()
	if t.Metadata.TemplateType == "" {
		t.Metadata.TemplateType = TypeText2Image
	}
	if t.Metadata.Language == "" {
		t.Metadata.Language = "zh"
	}
	if t.Metadata.Version == "" {
		t.Metadata.Version = "1.0.0"
	}

	_, err := storage.UpdateData(ctx, m.store, storage.KeyTemplates, map[string]Template{},
		func(user map[string]Template) (map[string]Template, error) {
			user[t.ID] = t
			return user, nil
		})
	if err != nil {
		return nil, err
	}

	if m.IsBuiltin(t.ID) {
		config.Logf("[Template] Saved user override of built-in %s", t.ID)
	}
	return &t, nil
}

// DeleteTemplate removes a user template. Built-in ids always fail.
func (m *Manager) DeleteTemplate(ctx context.Context, id string) error {
	if m.IsBuiltin(id) {
		return fmt.Errorf("%w: %s", ErrBuiltinImmutable, id)
	}

	_, err := storage.UpdateData(ctx, m.store, storage.KeyTemplates, map[string]Template{},
		func(user map[string]Template) (map[string]Template, error) {
			if _, ok := user[id]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
			}
			delete(user, id)
			return user, nil
		})
	return err
}

// ResetTemplate drops the user override of a built-in id.
func (m *Manager) ResetTemplate(ctx context.Context, id string) error {
	if !m.IsBuiltin(id) {
		return fmt.Errorf("%w: %s is not a built-in", ErrTemplateNotFound, id)
	}
	_, err := storage.UpdateData(ctx, m.store, storage.KeyTemplates, map[string]Template{},
		func(user map[string]Template) (map[string]Template, error) {
			delete(user, id)
			return user, nil
		})
	return err
}

// ExportYAML renders a template in the same format as the built-in files.
func (m *Manager) ExportYAML(ctx context.Context, id string) ([]byte, error) {
	t, err := m.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	return data, nil
}

// ImportYAML parses a template and saves it. A missing id gets a fresh
// "user-" id.
func (m *Manager) ImportYAML(ctx context.Context, data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		t.ID = "user-" + uuid.New().String()
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	return m.SaveTemplate(ctx, t)
}
