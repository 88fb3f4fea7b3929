package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"promptsmith/llm"
	"promptsmith/model"
	"promptsmith/modelconfig"
	"promptsmith/provider"
	"promptsmith/provider/testutil"
	"promptsmith/storage"
	"promptsmith/template"
)

// noisePNG returns a data URI of a random-noise PNG, which barely compresses.
func noisePNG(t *testing.T, w, h int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	svc     *Service
	adapter *testutil.MockAdapter
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore(0)

	mock := testutil.NewMockAdapter(provider.IDOpenAI)
	reg := provider.NewRegistry()
	reg.Register(mock)

	models := modelconfig.NewManager(store)
	vision := testutil.TestModelConfig(provider.IDOpenAI, "gpt-4o", "")
	vision.Model.Capabilities.SupportsVision = true
	blind := testutil.TestModelConfig(provider.IDOpenAI, "gpt-3.5-turbo", "")
	for _, cfg := range []*model.ModelConfig{vision, blind} {
		if err := models.SaveModel(ctx, *cfg); err != nil {
			t.Fatal(err)
		}
	}

	templates, err := template.NewManager(store)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		svc:     NewService(llm.NewService(models, reg), models, templates, ""),
		adapter: mock,
	}
}

func TestImageToPrompt(t *testing.T) {
	f := setup(t)
	f.adapter.SendMessageFunc = func(ctx context.Context, messages []model.Message, cfg *model.ModelConfig) (*model.LLMResponse, error) {
		return &model.LLMResponse{Content: "\n  A tabby cat on a windowsill.  "}, nil
	}

	resp, err := f.svc.ImageToPrompt(context.Background(), Request{
		ImageURL:     testutil.TinyPNGDataURI,
		ModelKey:     "openai-gpt-4o",
		Instructions: "mention the light",
	})
	if err != nil {
		t.Fatalf("ImageToPrompt: %v", err)
	}
	if resp.Prompt != "A tabby cat on a windowsill." || resp.ImageURL != testutil.TinyPNGDataURI {
		t.Errorf("response = %+v", resp)
	}

	sent := f.adapter.LastMessages()
	user := sent[len(sent)-1]
	if len(user.Parts) != 2 || user.Parts[1].ImageURL.URL != testutil.TinyPNGDataURI {
		t.Fatalf("user message = %+v", user)
	}
	if !strings.HasSuffix(user.Parts[0].Text, "\n用户额外指令：mention the light") {
		t.Errorf("instructions not appended: %q", user.Parts[0].Text)
	}
}

func TestImageToPromptFailsBeforeNetwork(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"empty image", Request{ModelKey: "openai-gpt-4o"}, ErrEmptyImage},
		{"empty key", Request{ImageURL: testutil.TinyPNGDataURI}, llm.ErrEmptyModelKey},
		{"unknown model", Request{ImageURL: testutil.TinyPNGDataURI, ModelKey: "nope"}, llm.ErrModelNotFound},
		{"no vision", Request{ImageURL: testutil.TinyPNGDataURI, ModelKey: "openai-gpt-3.5-turbo"}, ErrVisionUnsupported},
		{"missing template", Request{ImageURL: testutil.TinyPNGDataURI, ModelKey: "openai-gpt-4o", TemplateID: "ghost"}, template.ErrTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.ImageToPrompt(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("ImageToPrompt err = %v, want %v", err, tt.wantErr)
			}
			if err := f.svc.ImageToPromptStream(ctx, tt.req, model.StreamHandlers{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("ImageToPromptStream err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if f.adapter.Calls() != 0 {
		t.Errorf("adapter called %d times, want zero", f.adapter.Calls())
	}
}

func TestImageToPromptStream(t *testing.T) {
	f := setup(t)

	var chunks []string
	var full string
	err := f.svc.ImageToPromptStream(context.Background(),
		Request{ImageURL: testutil.TinyPNGDataURI, ModelKey: "openai-gpt-4o"},
		model.StreamHandlers{
			OnChunk:    func(c string) { chunks = append(chunks, c) },
			OnComplete: func(s string) { full = s },
		})
	if err != nil {
		t.Fatal(err)
	}
	if full == "" || strings.Join(chunks, "") != full {
		t.Errorf("chunks %q vs complete %q", chunks, full)
	}
}

func TestCompressForHistory(t *testing.T) {
	small := testutil.TinyPNGDataURI
	if got := CompressForHistory(small); got != small {
		t.Error("small data URI should be kept as is")
	}
	remote := "https://example.com/cat.png"
	if got := CompressForHistory(remote); got != remote {
		t.Error("remote URL should be kept as is")
	}

	big := noisePNG(t, 600, 400)
	if !IsTooLarge(big) {
		t.Fatalf("fixture is only %d bytes of payload", PayloadSize(big))
	}
	thumb := CompressForHistory(big)
	if !strings.HasPrefix(thumb, "data:image/jpeg;base64,") {
		t.Fatalf("thumbnail prefix = %.40s", thumb)
	}
	desc, err := DescribeImage(thumb)
	if err != nil {
		t.Fatal(err)
	}
	if desc.Resolution.Width != 200 || desc.Resolution.Height != 133 {
		t.Errorf("thumbnail size = %+v, want 200x133", desc.Resolution)
	}

	garbage := "data:image/webp;base64," + strings.Repeat("A", MaxInlinePayload+4)
	if got := CompressForHistory(garbage); got != "data:image/webp;base64,[compressed]" {
		t.Errorf("undecodable image = %.60s", got)
	}
}

func TestDescribeImage(t *testing.T) {
	desc, err := DescribeImage(noisePNG(t, 32, 18))
	if err != nil {
		t.Fatal(err)
	}
	if desc.Resolution != (Resolution{Width: 32, Height: 18}) || desc.AspectRatio != "16:9" {
		t.Errorf("desc = %+v", desc)
	}

	if _, err := DescribeImage("https://example.com/x.png"); err == nil {
		t.Error("remote URL should fail")
	}
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1920, 1080, "16:9"},
		{1024, 1024, "1:1"},
		{1080, 1350, "4:5"},
		{0, 10, ""},
	}
	for _, tt := range tests {
		if got := AspectRatio(tt.w, tt.h); got != tt.want {
			t.Errorf("AspectRatio(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestResolveSource(t *testing.T) {
	dir := t.TempDir()
	raw, _ := base64.StdEncoding.DecodeString(testutil.TinyPNG)
	pngPath := filepath.Join(dir, "dot.png")
	if err := os.WriteFile(pngPath, raw, 0600); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("not an image"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{"file", pngPath, testutil.TinyPNGDataURI, false},
		{"remote", "https://example.com/a.png", "https://example.com/a.png", false},
		{"data uri", testutil.TinyPNGDataURI, testutil.TinyPNGDataURI, false},
		{"blank", "  ", "", true},
		{"not an image", textPath, "", true},
		{"missing", filepath.Join(dir, "nope.png"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSource(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %.40q, want %.40q", got, tt.want)
			}
		})
	}
}
