package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/polyhub/studyhub/internal/assistant"
	"github.com/polyhub/studyhub/internal/catalog"
	"github.com/polyhub/studyhub/internal/server"
	"github.com/polyhub/studyhub/internal/study"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Department{
		{
			ID:          "ce",
			Name:        "Computer Engineering",
			Description: "Programming, systems and networks",
			Subjects: []catalog.Subject{
				{ID: "ce_dsa", Title: "Data Structures & Algorithms", Semester: catalog.Semester3,
					Categories: []catalog.ResourceCategory{
						{ID: "ce_dsa_notes", Title: "Notes", Kind: catalog.KindCollection, Items: []catalog.Resource{
							{ID: "ce_dsa_n1", Title: "Unit 1", Type: catalog.ResourcePDF, URL: "https://example.com/u1.pdf"},
						}},
					}},
				{ID: "ce_dsa_lab", Title: "Data Structures Lab", Semester: catalog.Semester3},
			},
			Videos: []catalog.VideoLecture{
				{ID: "v_trees", Title: "Trees and Traversals", VideoID: "abc123", Duration: "12:30",
					Semester: catalog.Semester3, SubjectID: "ce_dsa"},
			},
		},
	})
}

func newTestServer(t *testing.T, provider assistant.Provider) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(testCatalog(), study.NewMemoryStore(), nil, provider, logger)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var created struct {
		SessionID string `json:"session_id"`
	}
	resp := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/sessions",
		map[string]string{"user_id": "student-1"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if created.SessionID == "" {
		t.Fatal("create session returned empty id")
	}
	return created.SessionID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	var cat struct {
		Departments []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"departments"`
		Semesters []string `json:"semesters"`
	}
	resp := doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/catalog", nil, &cat)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog status = %d", resp.StatusCode)
	}
	if len(cat.Departments) != 1 || cat.Departments[0].ID != "ce" {
		t.Errorf("departments = %+v, want one ce entry", cat.Departments)
	}
	if len(cat.Semesters) != 6 {
		t.Errorf("semesters = %d, want 6", len(cat.Semesters))
	}

	var sem struct {
		Theory       []catalog.Subject                 `json:"theory"`
		Practical    []catalog.Subject                 `json:"practical"`
		Videos       map[string][]catalog.VideoLecture `json:"videos"`
		SubjectCount int                               `json:"subject_count"`
		VideoCount   int                               `json:"video_count"`
	}
	url := ts.URL + "/api/catalog/departments/ce/semesters/" + strings.ReplaceAll(string(catalog.Semester3), " ", "%20")
	resp = doJSON(t, ts.Client(), http.MethodGet, url, nil, &sem)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("semester status = %d", resp.StatusCode)
	}
	if len(sem.Theory) != 1 || sem.Theory[0].ID != "ce_dsa" {
		t.Errorf("theory = %+v, want ce_dsa", sem.Theory)
	}
	if len(sem.Practical) != 1 || sem.Practical[0].ID != "ce_dsa_lab" {
		t.Errorf("practical = %+v, want ce_dsa_lab", sem.Practical)
	}
	if len(sem.Videos["ce_dsa"]) != 1 {
		t.Errorf("videos[ce_dsa] = %+v, want one entry", sem.Videos["ce_dsa"])
	}
	if sem.SubjectCount != 2 || sem.VideoCount != 1 {
		t.Errorf("counts = %d/%d, want 2 subjects and 1 video", sem.SubjectCount, sem.VideoCount)
	}

	resp = doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/catalog/departments/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown department status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	var out struct {
		Results []struct {
			Kind  string `json:"kind"`
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"results"`
	}
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/search?q=data+structures", nil, &out)
	if len(out.Results) == 0 {
		t.Fatal("no results for 'data structures'")
	}
	if out.Results[0].ID != "ce_dsa" {
		t.Errorf("top result = %+v, want ce_dsa first", out.Results[0])
	}

	out.Results = nil
	doJSON(t, ts.Client(), http.MethodGet, ts.URL+"/api/search?q=", nil, &out)
	if len(out.Results) != 0 {
		t.Errorf("empty query returned %d results, want 0", len(out.Results))
	}
}

func TestSessionNavigateFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	type state struct {
		Selection struct {
			DeptID    string `json:"dept_id"`
			Semester  string `json:"semester"`
			SubjectID string `json:"subject_id"`
			Overlay   string `json:"overlay"`
			OverlayID string `json:"overlay_id"`
		} `json:"selection"`
	}
	var nav struct {
		State   state `json:"state"`
		Effects []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"effects"`
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "select_department", "id": "ce"}, &nav)
	doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "select_semester", "semester": string(catalog.Semester3)}, &nav)
	doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "select_subject", "id": "ce_dsa"}, &nav)
	if nav.State.Selection.SubjectID != "ce_dsa" {
		t.Fatalf("subject = %q, want ce_dsa", nav.State.Selection.SubjectID)
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "open_video", "id": "v_trees"}, &nav)
	if nav.State.Selection.Overlay != "video" || nav.State.Selection.OverlayID != "v_trees" {
		t.Errorf("overlay = %q/%q, want video/v_trees", nav.State.Selection.Overlay, nav.State.Selection.OverlayID)
	}

	// Back closes the overlay first, then walks up the drill-down.
	doJSON(t, ts.Client(), http.MethodPost, base+"/back", nil, &nav)
	if nav.State.Selection.Overlay != "" {
		t.Errorf("after back: overlay = %q, want closed", nav.State.Selection.Overlay)
	}
	if nav.State.Selection.SubjectID != "ce_dsa" {
		t.Errorf("after back: subject = %q, want ce_dsa kept", nav.State.Selection.SubjectID)
	}

	// Picking a video search result deep-links: context plus overlay in one step.
	doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "open_result", "kind": "video", "id": "v_trees"}, &nav)
	if nav.State.Selection.DeptID != "ce" || nav.State.Selection.OverlayID != "v_trees" {
		t.Errorf("open_result selection = %+v, want ce context with v_trees overlay", nav.State.Selection)
	}

	resp := doJSON(t, ts.Client(), http.MethodPost, base+"/navigate",
		map[string]string{"action": "warp"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSessionProgressAndBookmarks(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	var set struct {
		Percent int `json:"percent"`
	}
	resp := doJSON(t, ts.Client(), http.MethodPut, base+"/progress/ce_dsa",
		map[string]int{"percent": 52}, &set)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set progress status = %d", resp.StatusCode)
	}
	if set.Percent != 50 {
		t.Errorf("percent = %d, want 50 (snapped to step)", set.Percent)
	}

	resp = doJSON(t, ts.Client(), http.MethodPut, base+"/progress/ghost",
		map[string]int{"percent": 10}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown subject status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// Import merges by max: the stored 50 survives a lower incoming value.
	var imported struct {
		Progress map[string]int `json:"progress"`
	}
	doJSON(t, ts.Client(), http.MethodPost, base+"/progress/import",
		map[string]any{"progress": map[string]int{"ce_dsa": 20, "ce_dsa_lab": 35}}, &imported)
	if imported.Progress["ce_dsa"] != 50 {
		t.Errorf("imported ce_dsa = %d, want 50", imported.Progress["ce_dsa"])
	}
	if imported.Progress["ce_dsa_lab"] != 35 {
		t.Errorf("imported ce_dsa_lab = %d, want 35", imported.Progress["ce_dsa_lab"])
	}

	var toggled struct {
		Bookmarked bool `json:"bookmarked"`
	}
	mark := map[string]string{"id": "ce_dsa", "type": "subject", "title": "Data Structures & Algorithms", "dept_id": "ce"}
	doJSON(t, ts.Client(), http.MethodPost, base+"/bookmarks/toggle", mark, &toggled)
	if !toggled.Bookmarked {
		t.Error("first toggle: bookmarked = false, want true")
	}
	doJSON(t, ts.Client(), http.MethodPost, base+"/bookmarks/toggle", mark, &toggled)
	if toggled.Bookmarked {
		t.Error("second toggle: bookmarked = true, want false")
	}

	resp = doJSON(t, ts.Client(), http.MethodPost, base+"/bookmarks/toggle",
		map[string]string{"id": "x", "type": "playlist"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad bookmark type status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestExportWorkbook(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	doJSON(t, ts.Client(), http.MethodPut, base+"/progress/ce_dsa", map[string]int{"percent": 75}, nil)

	resp, err := ts.Client().Get(base + "/export.xlsx")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want spreadsheet", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	// xlsx files are zip archives.
	if len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Error("export body is not a zip archive")
	}
}

func TestPlayerLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	var st struct {
		Status   string  `json:"status"`
		MediaID  string  `json:"media_id"`
		Duration float64 `json:"duration"`
		Volume   int     `json:"volume"`
		Muted    bool    `json:"muted"`
		Rate     float64 `json:"rate"`
	}
	resp := doJSON(t, ts.Client(), http.MethodPost, base+"/player",
		map[string]any{"video_id": "v_trees", "autoplay": true}, &st)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open player status = %d", resp.StatusCode)
	}
	if st.Status != "playing" {
		t.Errorf("status = %q, want playing (autoplay)", st.Status)
	}
	if st.MediaID != "abc123" {
		t.Errorf("media_id = %q, want abc123", st.MediaID)
	}
	if st.Duration != 750 {
		t.Errorf("duration = %v, want 750 (12:30)", st.Duration)
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/player/command",
		map[string]any{"command": "volume", "volume": 0}, &st)
	if !st.Muted {
		t.Error("volume 0 did not mute")
	}

	resp = doJSON(t, ts.Client(), http.MethodPost, base+"/player/command",
		map[string]any{"command": "rate", "rate": 3.0}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid rate status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/player/command",
		map[string]any{"command": "key", "key": "f"}, &st)

	resp = doJSON(t, ts.Client(), http.MethodDelete, base+"/player", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("close player status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp = doJSON(t, ts.Client(), http.MethodGet, base+"/player", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("player state after close = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

const testQuizJSON = `{
	"title": "Data Structures Quiz",
	"questions": [
		{"question": "Which structure is LIFO?", "options": ["Queue", "Stack", "Heap", "Graph"], "correctAnswer": 1, "explanation": "Stacks pop the most recent push."},
		{"question": "BST in-order traversal yields?", "options": ["Random order", "Reverse order", "Sorted order", "Level order"], "correctAnswer": 2}
	]
}`

func TestQuizFlow(t *testing.T) {
	provider := assistant.NewMockProvider(testQuizJSON)
	ts := newTestServer(t, provider)
	id := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + id

	var quiz struct {
		Title         string   `json:"title"`
		Phase         string   `json:"phase"`
		Index         int      `json:"index"`
		Total         int      `json:"total"`
		Score         int      `json:"score"`
		Options       []string `json:"options"`
		CorrectAnswer *int     `json:"correct_answer"`
	}
	resp := doJSON(t, ts.Client(), http.MethodPost, base+"/quiz",
		map[string]string{"subject_id": "ce_dsa"}, &quiz)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start quiz status = %d", resp.StatusCode)
	}
	if quiz.Total != 2 || quiz.Phase != "question" {
		t.Fatalf("quiz = %+v, want 2 questions in question phase", quiz)
	}
	if quiz.CorrectAnswer != nil {
		t.Error("correct answer leaked before answering")
	}

	// Wrong answer locks in, reveals the solution, keeps score at 0.
	doJSON(t, ts.Client(), http.MethodPost, base+"/quiz/answer", map[string]int{"choice": 0}, &quiz)
	if quiz.Phase != "answered" || quiz.Score != 0 {
		t.Errorf("after wrong answer: phase = %q score = %d, want answered/0", quiz.Phase, quiz.Score)
	}
	if quiz.CorrectAnswer == nil || *quiz.CorrectAnswer != 1 {
		t.Errorf("correct_answer = %v, want 1", quiz.CorrectAnswer)
	}

	resp = doJSON(t, ts.Client(), http.MethodPost, base+"/quiz/answer", map[string]int{"choice": 1}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("re-answer status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/quiz/next", nil, &quiz)
	if quiz.Index != 1 || quiz.Phase != "question" {
		t.Errorf("after next: index = %d phase = %q, want 1/question", quiz.Index, quiz.Phase)
	}

	doJSON(t, ts.Client(), http.MethodPost, base+"/quiz/answer", map[string]int{"choice": 2}, &quiz)
	if quiz.Score != 1 {
		t.Errorf("score = %d, want 1 after correct answer", quiz.Score)
	}
	doJSON(t, ts.Client(), http.MethodPost, base+"/quiz/next", nil, &quiz)
	if quiz.Phase != "finished" || quiz.Score != 1 {
		t.Errorf("final = %q/%d, want finished/1", quiz.Phase, quiz.Score)
	}
}

func TestQuizRequiresProvider(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	resp := doJSON(t, ts.Client(), http.MethodPost, ts.URL+"/api/sessions/"+id+"/quiz",
		map[string]string{"subject_id": "ce_dsa"}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("quiz without provider status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestAssistantWebSocket(t *testing.T) {
	provider := &assistant.MockProvider{Chunks: []string{"Hello ", "student"}}
	ts := newTestServer(t, provider)
	id := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/assistant/ws"
	ctx := t.Context()
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, map[string]any{"text": "explain stacks"}); err != nil {
		t.Fatalf("ws write: %v", err)
	}

	var deltas []string
	for {
		var frame struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("ws read: %v", err)
		}
		switch frame.Type {
		case "delta":
			deltas = append(deltas, frame.Content)
			continue
		case "done":
			if frame.Content != "Hello student" {
				t.Errorf("done content = %q, want %q", frame.Content, "Hello student")
			}
		case "error":
			t.Fatalf("unexpected error frame: %s", frame.Content)
		}
		break
	}
	if got := strings.Join(deltas, ""); got != "Hello student" {
		t.Errorf("deltas = %q, want %q", got, "Hello student")
	}
}

func TestAssistantWSRequiresProvider(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	resp, err := ts.Client().Get(ts.URL + "/api/sessions/" + id + "/assistant/ws")
	if err != nil {
		t.Fatalf("GET assistant ws: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	resp := doJSON(t, ts.Client(), http.MethodDelete, ts.URL+"/api/sessions/"+id, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close session status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts.Client(), http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/state", ts.URL, id), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("state after close = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
