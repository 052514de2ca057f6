package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassifyToolSupport(t *testing.T) {
	tests := []struct {
		name string
		show ShowResponse
		want bool
	}{
		{
			name: "template references tools",
			show: ShowResponse{Template: `{{ if .Tools }}{{ range .Tools }}{{ . }}{{ end }}{{ end }}`},
			want: true,
		},
		{
			name: "template references tool calls",
			show: ShowResponse{Template: `{{ range .ToolCalls }}{{ . }}{{ end }}`},
			want: true,
		},
		{
			name: "known family without template marker",
			show: ShowResponse{Details: ModelDetails{Family: "qwen2"}},
			want: true,
		},
		{
			name: "known family in families list",
			show: ShowResponse{Details: ModelDetails{Families: []string{"clip", "mistral"}}},
			want: true,
		},
		{
			name: "unknown family, plain template",
			show: ShowResponse{
				Template: `{{ .System }}{{ .Prompt }}`,
				Details:  ModelDetails{Family: "gemma"},
			},
			want: false,
		},
		{
			name: "empty response",
			show: ShowResponse{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyToolSupport(&tt.show); got != tt.want {
				t.Errorf("classifyToolSupport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportsTools_DegradesToFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	if testClient(srv.URL).SupportsTools(context.Background(), "anything") {
		t.Error("probe failure must degrade to no tool support")
	}

	srv.Close()
	if testClient(srv.URL).SupportsTools(context.Background(), "anything") {
		t.Error("unreachable server must degrade to no tool support")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[
			{"name":"qwen2.5:7b","size":4683087332,"digest":"abc123","details":{"family":"qwen2","parameter_size":"7.6B","quantization_level":"Q4_K_M"}},
			{"name":"gemma:2b","size":1678587332,"digest":"def456","details":{"family":"gemma","parameter_size":"2B","quantization_level":"Q4_0"}}
		]}`)
	}))
	defer srv.Close()

	models, err := testClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Name != "qwen2.5:7b" {
		t.Errorf("first model = %q, want %q", models[0].Name, "qwen2.5:7b")
	}
	if models[0].Details.Family != "qwen2" {
		t.Errorf("family = %q, want %q", models[0].Details.Family, "qwen2")
	}
	if models[1].Details.QuantizationLevel != "Q4_0" {
		t.Errorf("quantization = %q, want %q", models[1].Details.QuantizationLevel, "Q4_0")
	}
}

func TestShow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/show" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"template":"{{ if .Tools }}x{{ end }}","details":{"family":"llama"}}`)
	}))
	defer srv.Close()

	show, err := testClient(srv.URL).Show(context.Background(), "llama3.1:8b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if show.Details.Family != "llama" {
		t.Errorf("family = %q, want %q", show.Details.Family, "llama")
	}
	if !classifyToolSupport(show) {
		t.Error("expected tool support for template with .Tools")
	}
}
