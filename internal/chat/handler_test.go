package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"petguide-backend/internal/analysis"
)

func newChatRouter(t *testing.T, bot *stubBot) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(bot, analysis.NewHistory())
	handler := NewHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isGuest", false)
		c.Next()
	})
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router, svc
}

func TestChatAskReturnsAnswerAndTranscript(t *testing.T) {
	bot := &stubBot{answer: "Labradors love water."}
	router, _ := newChatRouter(t, bot)

	body := strings.NewReader(`{"question":"Do labradors like water?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Answer string `json:"answer"`
		Turns  []Turn `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Answer != "Labradors love water." {
		t.Fatalf("unexpected answer %q", payload.Answer)
	}
	if len(payload.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(payload.Turns))
	}
}

func TestChatAskBlankQuestionReturnsNoContent(t *testing.T) {
	bot := &stubBot{answer: "unused"}
	router, svc := newChatRouter(t, bot)

	body := strings.NewReader(`{"question":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if len(svc.Transcript("user-1")) != 0 {
		t.Fatalf("blank question changed transcript")
	}
}

func TestChatAskGatewayFailureReturns502(t *testing.T) {
	bot := &stubBot{err: errors.New("model unavailable")}
	router, svc := newChatRouter(t, bot)

	body := strings.NewReader(`{"question":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "gateway_error") {
		t.Fatalf("expected gateway_error code, got %s", resp.Body.String())
	}
	if len(svc.Transcript("user-1")) != 0 {
		t.Fatalf("failed call changed transcript")
	}
}

func TestChatAskBusyReturnsConflict(t *testing.T) {
	bot := &stubBot{
		answer:  "slow",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	router, _ := newChatRouter(t, bot)

	done := make(chan int, 1)
	go func() {
		body := strings.NewReader(`{"question":"first"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		done <- resp.Code
	}()
	<-bot.started

	body := strings.NewReader(`{"question":"second"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "chat_busy") {
		t.Fatalf("expected chat_busy code, got %s", resp.Body.String())
	}

	close(bot.release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first call: expected status 200, got %d", code)
	}
}

func TestChatTranscriptAndReset(t *testing.T) {
	bot := &stubBot{answer: "hello there"}
	router, _ := newChatRouter(t, bot)

	body := strings.NewReader(`{"question":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("ask: expected status 200, got %d", resp.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	getResp := httptest.NewRecorder()
	router.ServeHTTP(getResp, getReq)
	if getResp.Code != http.StatusOK {
		t.Fatalf("transcript: expected status 200, got %d", getResp.Code)
	}
	var payload struct {
		Turns []Turn `json:"turns"`
	}
	if err := json.Unmarshal(getResp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(payload.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(payload.Turns))
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/chat", nil)
	delResp := httptest.NewRecorder()
	router.ServeHTTP(delResp, delReq)
	if delResp.Code != http.StatusNoContent {
		t.Fatalf("reset: expected status 204, got %d", delResp.Code)
	}

	getResp2 := httptest.NewRecorder()
	router.ServeHTTP(getResp2, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))
	var after struct {
		Turns []Turn `json:"turns"`
	}
	if err := json.Unmarshal(getResp2.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(after.Turns) != 0 {
		t.Fatalf("expected empty transcript after reset, got %d turns", len(after.Turns))
	}
}

func TestChatAskInvalidBodyReturns400(t *testing.T) {
	bot := &stubBot{answer: "unused"}
	router, _ := newChatRouter(t, bot)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
