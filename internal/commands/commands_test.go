package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/movelearn/tutor/pkg/store"
)

// sandbox keeps config files of the machine running the tests out of reach.
func sandbox(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func execute(t *testing.T, ctx context.Context, in string, args ...string) (string, error) {
	t.Helper()
	sandbox(t)
	return runRoot(ctx, in, args...)
}

func runRoot(ctx context.Context, in string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakePlatform serves both the regular and the assistant API.
type fakePlatform struct {
	mu        sync.Mutex
	questions []string
	errors    []string
	progress  []map[string]string
	auth      []string
	commits   map[string][]string

	assistantStatus int

	bought      bool
	learned     int
	certIssued  bool
	typeFilters []string
	signs       []map[string]any
	certUpdates []string
}

func newFakePlatform(t *testing.T) (*fakePlatform, *httptest.Server) {
	t.Helper()
	f := &fakePlatform{commits: make(map[string][]string)}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			WalletAddress string `json:"walletAddress"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "tok-" + req.WalletAddress,
				"user":  map[string]any{"id": "u1", "walletAddress": req.WalletAddress},
			},
		})
	})

	mux.HandleFunc("GET /api/chapters/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"id":            r.PathValue("id"),
				"title":         "Abilities",
				"courseId":      "course-1",
				"nextChapterId": "ch2",
				"checkPoints": []map[string]any{
					{
						"id":      "cp1",
						"type":    "CHOICE",
						"options": map[string]any{"question": "Which ability allows copying?", "options": map[string]string{"A": "drop", "B": "copy"}},
					},
					{
						"id":       "cp2",
						"type":     "CODE",
						"options":  map[string]any{"question": "Implement add"},
						"baseCode": "fun add() {}\n",
					},
				},
			},
		})
	})

	mux.HandleFunc("GET /api/checkpoint/checkUserPassPoint/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": false})
	})

	mux.HandleFunc("POST /api/checkpoint/commit/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		id := r.PathValue("id")
		f.mu.Lock()
		f.commits[id] = append(f.commits[id], req.Content)
		f.mu.Unlock()

		correct := id == "cp2" || req.Content == "B"
		data := map[string]any{"isCorrect": correct}
		if !correct {
			data["msg"] = "选择错误"
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	})

	mux.HandleFunc("POST /api/progress/update", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.progress = append(f.progress, req)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	answer := func(w http.ResponseWriter, r *http.Request, record *[]string) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		*record = append(*record, req.Question)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		status := f.assistantStatus
		f.mu.Unlock()

		if status == http.StatusTooManyRequests {
			writeJSON(w, status, map[string]any{"success": false, "code": 429, "message": "您今日的AI助手使用次数已达上限，请明天再试"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"content": "think about copy"}})
	}
	mux.HandleFunc("POST /api/ai-agent/assistant-question", func(w http.ResponseWriter, r *http.Request) {
		answer(w, r, &f.questions)
	})
	mux.HandleFunc("POST /api/ai-agent/assistant-error", func(w http.ResponseWriter, r *http.Request) {
		answer(w, r, &f.errors)
	})

	mux.HandleFunc("GET /api/courses/types", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{{"id": "t1", "name": "Move基础"}}})
	})
	mux.HandleFunc("GET /api/courses", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.typeFilters = append(f.typeFilters, r.URL.Query().Get("typeId"))
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"id": "course-1", "title": "Move 入门", "price": 10, "isBought": true, "learnedChapterLength": 1, "totalChapterLength": 2},
			{"id": "course-2", "title": "Aptos 进阶", "price": 20},
		}})
	})
	mux.HandleFunc("GET /api/courses/buy/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.bought = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": r.PathValue("id")}})
	})
	mux.HandleFunc("GET /api/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"id":                   r.PathValue("id"),
			"title":                "Move 入门",
			"price":                10,
			"finishReward":         100,
			"userBrought":          f.bought,
			"learnedChapterLength": f.learned,
			"totalChapterLength":   2,
			"certificateIssued":    f.certIssued,
			"chapters": []map[string]any{
				{"id": "ch2", "title": "Abilities", "order": 2},
				{"id": "ch1", "title": "Hello Move", "order": 1},
			},
		}})
	})
	mux.HandleFunc("GET /api/progress/{courseId}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"courseId": r.PathValue("courseId"), "chapterId": "ch1"}})
	})
	mux.HandleFunc("GET /api/index/course-badge", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"courseId": "course-1", "title": "Move 入门", "issued": true},
			{"courseId": "course-2", "title": "Aptos 进阶"},
		}})
	})
	mux.HandleFunc("POST /api/contract/sign", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.signs = append(f.signs, req)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"nonce": "n-1", "publicKey": []string{"1", "2"}}})
	})
	mux.HandleFunc("POST /api/contract/update-certificate", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.certUpdates = append(f.certUpdates, req["courseId"])
		f.certIssued = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/move/compile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"output": "\x1b[31merror\x1b[0m: E01 unbound module"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"VERBOSE", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" ERROR ", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPromptHintFromSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "view.yaml")
	data := `checkpoints:
  - has_options: true
    question: Which ability allows copying?
    option_labels: ["A. drop", "B. copy"]
`
	if err := os.WriteFile(snapshot, []byte(data), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	out, err := execute(t, context.Background(), "", "prompt", "hint", "--snapshot", snapshot, "-q", "custom")
	if err != nil {
		t.Fatalf("prompt hint: %v", err)
	}
	for _, want := range []string{"custom\n\n【当前题目信息】", "题目：Which ability allows copying?", "  B. copy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPromptAnalyzeWithoutSnapshot(t *testing.T) {
	out, err := execute(t, context.Background(), "", "prompt", "analyze", "-e", "boom")
	if err != nil {
		t.Fatalf("prompt analyze: %v", err)
	}
	if !strings.Contains(out, "【错误信息】\nboom") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLoginAndLogout(t *testing.T) {
	_, srv := newFakePlatform(t)
	dataDir := t.TempDir()

	out, err := execute(t, context.Background(), "", "--data-dir", dataDir, "--server", srv.URL, "login", "--wallet", "0xabc", "--wallet-type", "Petra")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "登录成功") {
		t.Fatalf("unexpected output: %s", out)
	}

	st := store.NewFSStore(dataDir)
	rec, err := st.LoadAuth(context.Background())
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if !rec.IsLoggedIn || rec.TokenValue != "tok-0xabc" || rec.WalletType != "Petra" || rec.User == nil || rec.User.ID != "u1" {
		t.Fatalf("unexpected auth record: %+v", rec)
	}

	if _, err := execute(t, context.Background(), "", "--data-dir", dataDir, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	rec, err = st.LoadAuth(context.Background())
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if rec.IsLoggedIn || rec.TokenValue != "" {
		t.Fatalf("auth not cleared: %+v", rec)
	}
}

func TestLoginRequiresWallet(t *testing.T) {
	if _, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "login"); err == nil {
		t.Fatalf("expected error without --wallet")
	}
}

func TestHintSendsCheckpointContext(t *testing.T) {
	fake, srv := newFakePlatform(t)
	snapshot := filepath.Join(t.TempDir(), "view.json")
	data := `{"checkpoints":[{"hasEditor":true,"editorPrompt":"Implement add","editorText":"fun add() {}"}]}`
	if err := os.WriteFile(snapshot, []byte(data), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--ai-server", srv.URL, "hint", "--snapshot", snapshot)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if !strings.Contains(out, "copy") {
		t.Fatalf("answer not printed:\n%s", out)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.questions) != 1 {
		t.Fatalf("expected one question, got %d", len(fake.questions))
	}
	if q := fake.questions[0]; !strings.Contains(q, "题目类型：代码练习") || !strings.Contains(q, "fun add() {}") {
		t.Fatalf("checkpoint context missing from question:\n%s", q)
	}
}

func TestHintRateLimited(t *testing.T) {
	fake, srv := newFakePlatform(t)
	fake.assistantStatus = http.StatusTooManyRequests

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--ai-server", srv.URL, "hint")
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if !strings.Contains(out, "使用次数已达上限") {
		t.Fatalf("rate limit text missing:\n%s", out)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.questions) != 1 {
		t.Fatalf("rate limits must not be retried, got %d calls", len(fake.questions))
	}
}

func TestLearnWalksChapter(t *testing.T) {
	fake, srv := newFakePlatform(t)
	input := strings.Join([]string{
		"A",        // wrong choice
		"/analyze", // asks about it
		"B",        // passes
		"fun add(a: u64, b: u64): u64 { a + b }",
		".",
	}, "\n") + "\n"

	out, err := execute(t, context.Background(), input, "--data-dir", t.TempDir(), "--server", srv.URL, "--ai-server", srv.URL, "learn", "ch1")
	if err != nil {
		t.Fatalf("learn: %v\n%s", err, out)
	}

	for _, want := range []string{"Abilities", "B. copy", "选择错误", "检查点通过！", "下一步: /chapters/ch2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if got := fake.commits["cp1"]; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected cp1 commits: %v", got)
	}
	if got := fake.commits["cp2"]; len(got) != 1 || !strings.Contains(got[0], "a + b") {
		t.Fatalf("unexpected cp2 commits: %v", got)
	}
	if len(fake.errors) != 1 || !strings.Contains(fake.errors[0], "我选择了：A. drop") {
		t.Fatalf("analysis did not describe the failed choice: %v", fake.errors)
	}
	if len(fake.progress) != 1 || fake.progress[0]["courseId"] != "course-1" || fake.progress[0]["chapterId"] != "ch1" {
		t.Fatalf("unexpected progress calls: %v", fake.progress)
	}
}

func TestLearnQuitDoesNotSaveProgress(t *testing.T) {
	fake, srv := newFakePlatform(t)

	out, err := execute(t, context.Background(), "/quit\n", "--data-dir", t.TempDir(), "--server", srv.URL, "--ai-server", srv.URL, "learn", "ch1")
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if !strings.Contains(out, "已退出") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.progress) != 0 {
		t.Fatalf("progress saved after quitting: %v", fake.progress)
	}
}

func TestCoursesFilteredByType(t *testing.T) {
	fake, srv := newFakePlatform(t)

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--server", srv.URL, "courses", "--type", "t1")
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	for _, want := range []string{"Move基础(t1)", "course-1", "已购买 1/2", "Aptos 进阶"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.typeFilters) != 1 || fake.typeFilters[0] != "t1" {
		t.Fatalf("type filter not sent: %v", fake.typeFilters)
	}
}

func TestCourseBuyShowsProgress(t *testing.T) {
	fake, srv := newFakePlatform(t)
	fake.learned = 1

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--server", srv.URL, "course", "course-1", "--buy")
	if err != nil {
		t.Fatalf("course: %v", err)
	}
	for _, want := range []string{"购买成功！", "已完成: 1/2 章节 (50%)", "✓ 1. Hello Move (ch1)", "▶ 2. Abilities (ch2)", "继续学习: tutor learn ch2", "最近学习: ch1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCourseNotBought(t *testing.T) {
	_, srv := newFakePlatform(t)

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--server", srv.URL, "course", "course-1")
	if err != nil {
		t.Fatalf("course: %v", err)
	}
	if !strings.Contains(out, "使用 --buy 购买课程") || strings.Contains(out, "最近学习") {
		t.Fatalf("unexpected output for a course not bought:\n%s", out)
	}
}

func TestBadges(t *testing.T) {
	_, srv := newFakePlatform(t)

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--server", srv.URL, "badges")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if !strings.Contains(out, "Move 入门 (course-1) 已获得") || !strings.Contains(out, "Aptos 进阶 (course-2) 未获得") {
		t.Fatalf("unexpected badges:\n%s", out)
	}
}

func TestCertificateFlow(t *testing.T) {
	fake, srv := newFakePlatform(t)
	fake.bought = true
	fake.learned = 2
	sandbox(t)
	dataDir := t.TempDir()
	ctx := context.Background()
	run := func(args ...string) (string, error) {
		return runRoot(ctx, "", append([]string{"--data-dir", dataDir, "--server", srv.URL}, args...)...)
	}

	if _, err := run("certificate", "course-1"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected login to be required, got %v", err)
	}
	if _, err := run("login", "--wallet", "0xabc"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run("certificate", "course-1")
	if err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if !strings.Contains(out, "nonce: n-1") || !strings.Contains(out, "publicKey: 1,2") {
		t.Fatalf("sign result not printed:\n%s", out)
	}
	fake.mu.Lock()
	if len(fake.signs) != 1 || fake.signs[0]["userAddress"] != "0xabc" || fake.signs[0]["courseId"] != "course-1" || fake.signs[0]["points"] != float64(100) {
		fake.mu.Unlock()
		t.Fatalf("unexpected sign request: %v", fake.signs)
	}
	fake.mu.Unlock()

	out, err = run("certificate", "course-1", "--minted")
	if err != nil {
		t.Fatalf("certificate --minted: %v", err)
	}
	if !strings.Contains(out, "证书获取成功！") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run("certificate", "course-1")
	if err != nil {
		t.Fatalf("certificate after mint: %v", err)
	}
	if !strings.Contains(out, "已获取证书") {
		t.Fatalf("issued certificate not reported:\n%s", out)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.certUpdates) != 1 || fake.certUpdates[0] != "course-1" {
		t.Fatalf("unexpected certificate updates: %v", fake.certUpdates)
	}
	if len(fake.signs) != 1 {
		t.Fatalf("issued certificate must not be signed again: %v", fake.signs)
	}
}

func TestCertificateRequiresFinishedCourse(t *testing.T) {
	fake, srv := newFakePlatform(t)
	fake.bought = true
	fake.learned = 1
	sandbox(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	if _, err := runRoot(ctx, "", "--data-dir", dataDir, "--server", srv.URL, "login", "--wallet", "0xabc"); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err := runRoot(ctx, "", "--data-dir", dataDir, "--server", srv.URL, "certificate", "course-1")
	if !errors.Is(err, errCourseUnfinished) {
		t.Fatalf("expected unfinished course error, got %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.signs) != 0 {
		t.Fatalf("unfinished course was signed: %v", fake.signs)
	}
}

func TestCompileCleansOutput(t *testing.T) {
	_, srv := newFakePlatform(t)
	src := filepath.Join(t.TempDir(), "add.move")
	if err := os.WriteFile(src, []byte("module 0x1::m {}"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, err := execute(t, context.Background(), "", "--data-dir", t.TempDir(), "--server", srv.URL, "compile", src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(out, "error: E01 unbound module") || strings.Contains(out, "\x1b") {
		t.Fatalf("unexpected compile output: %q", out)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-token")
	t.Setenv("TUTOR_HTTP_ADDR", "127.0.0.1:0")

	sandbox(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := runRoot(ctx, "", "serve")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for serve to exit")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, context.Background(), "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "v"+Version) {
		t.Fatalf("unexpected output: %s", out)
	}
}
