package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/argunet/games/debate"
	"github.com/Seednode/argunet/games/debate/judge"
	"github.com/Seednode/argunet/storage"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			port:         8080,
			store:        storage.KindBolt,
			storePath:    "argunet.db",
			threshold:    30,
			scorer:       scorerLocal,
			judgeTimeout: 30 * time.Second,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "tls cert without key", modify: func(c *Config) { c.tlsCert = "cert.pem" }, wantErr: true},
		{name: "tls pair", modify: func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }},
		{name: "port zero", modify: func(c *Config) { c.port = 0 }, wantErr: true},
		{name: "port too high", modify: func(c *Config) { c.port = 65536 }, wantErr: true},
		{name: "unknown store", modify: func(c *Config) { c.store = "redis" }, wantErr: true},
		{name: "store is case insensitive", modify: func(c *Config) { c.store = "SQLite" }},
		{name: "file store without path", modify: func(c *Config) { c.storePath = "" }, wantErr: true},
		{name: "memory store without path", modify: func(c *Config) { c.store, c.storePath = storage.KindMemory, "" }},
		{name: "zero threshold", modify: func(c *Config) { c.threshold = 0 }, wantErr: true},
		{name: "unknown scorer", modify: func(c *Config) { c.scorer = "oracle" }, wantErr: true},
		{name: "remote without key", modify: func(c *Config) { c.scorer = scorerRemote }, wantErr: true},
		{name: "remote with key", modify: func(c *Config) { c.scorer, c.apiKey = scorerRemote, "sk-test" }},
		{name: "remote without timeout", modify: func(c *Config) {
			c.scorer, c.apiKey, c.judgeTimeout = scorerRemote, "sk-test", 0
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateNormalizesCase(t *testing.T) {
	cfg := &Config{port: 80, store: "MEMORY", threshold: 1, scorer: "Local"}

	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.store != storage.KindMemory || cfg.scorer != scorerLocal {
		t.Errorf("store = %q, scorer = %q, want lower case", cfg.store, cfg.scorer)
	}
}

func execute(t *testing.T, cfg *Config, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newCmd(cfg)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	t.Setenv("ARGUNET_SCORER", "")

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "arguments", args: []string{"score", "because", "evidence"}, want: "score: 5\n"},
		{name: "stdin", stdin: "Consider the evidence.\n", args: []string{"score"}, want: "score: 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, &Config{}, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("output = %q, want prefix %q", out, tt.want)
			}
			if !strings.Contains(out, "reasoning: ") {
				t.Errorf("output = %q, missing reasoning", out)
			}
		})
	}
}

func TestScoreCommand_Empty(t *testing.T) {
	_, err := execute(t, &Config{}, "   \n", "score")

	if !errors.Is(err, debate.ErrEmptyArgument) {
		t.Errorf("Execute() error = %v, want ErrEmptyArgument", err)
	}
}

func TestScoreCommand_RemoteKeyFromEnvironment(t *testing.T) {
	t.Setenv("ARGUNET_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "sk-fallback")

	var gotAuth string
	var gotReq judge.ChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(judge.ChatResponse{
			Choices: []judge.Choice{{Message: judge.Message{
				Role:    "assistant",
				Content: `{"score": 7.4, "reasoning": "Sharp."}`,
			}}},
		})
	}))
	t.Cleanup(srv.Close)

	out, err := execute(t, &Config{}, "",
		"score", "--scorer", "remote", "--judge-url", srv.URL, "--topic", "Cats or dogs?", "Dogs", "are", "loyal.")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if out != "score: 7\nreasoning: Sharp.\n" {
		t.Errorf("output = %q", out)
	}
	if gotAuth != "Bearer sk-fallback" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != judge.DefaultModel {
		t.Errorf("model = %q, want %q", gotReq.Model, judge.DefaultModel)
	}
	if last := gotReq.Messages[len(gotReq.Messages)-1].Content; !strings.Contains(last, "Cats or dogs?") {
		t.Errorf("prompt %q does not mention the topic", last)
	}
}

func TestScoreCommand_RemoteRequiresKey(t *testing.T) {
	t.Setenv("ARGUNET_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := execute(t, &Config{}, "", "score", "--scorer", "remote", "anything")
	if err == nil || !strings.Contains(err.Error(), "api-key") {
		t.Errorf("Execute() error = %v, want missing key", err)
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("ARGUNET_THRESHOLD", "12")
	t.Setenv("ARGUNET_JUDGE_TIMEOUT", "45s")
	t.Setenv("ARGUNET_SCORER", "")

	cfg := &Config{}
	if _, err := execute(t, cfg, "", "score", "x"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if cfg.threshold != 12 {
		t.Errorf("threshold = %d, want 12 from ARGUNET_THRESHOLD", cfg.threshold)
	}
	if cfg.judgeTimeout != 45*time.Second {
		t.Errorf("judgeTimeout = %s, want 45s", cfg.judgeTimeout)
	}
}

func TestLoadEnv_FlagsWin(t *testing.T) {
	t.Setenv("ARGUNET_THRESHOLD", "12")

	cfg := &Config{}
	if _, err := execute(t, cfg, "", "--threshold", "50", "score", "x"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if cfg.threshold != 50 {
		t.Errorf("threshold = %d, want 50 from the flag", cfg.threshold)
	}
}
