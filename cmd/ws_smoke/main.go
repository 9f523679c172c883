package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gorilla/websocket"
)

// Smoke test against a running server: connect to /ws, create and toggle a
// task over HTTP, print the events that come back.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	var token string
	if secret := os.Getenv("JWT_SECRET"); secret != "" && os.Getenv("AUTH_PASSWORD") != "" {
		service.InitJWT(secret)
		t, err := service.GenerateJWT(service.OwnerSubject)
		if err != nil {
			logger.Fatal("gen token", "error", err)
		}
		token = t
	}

	wsURL := "ws://" + base + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Fatal("dial ws", "error", err)
	}
	defer conn.Close()

	readMsg := func() map[string]any {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("ws read", "error", err)
		}
		var obj map[string]any
		_ = json.Unmarshal(msg, &obj)
		fmt.Printf("ws: %s\n", msg)
		return obj
	}

	if hello := readMsg(); hello["type"] != "hello" {
		logger.Fatal("expected hello first", "got", hello["type"])
	}

	call := func(method, path string, body any) map[string]any {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req, _ := http.NewRequest(method, "http://"+base+"/api/v1"+path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			logger.Fatal("http", "path", path, "error", err)
		}
		defer res.Body.Close()
		var out map[string]any
		_ = json.NewDecoder(res.Body).Decode(&out)
		if res.StatusCode >= 300 {
			logger.Fatal("http status", "path", path, "status", res.StatusCode, "body", out)
		}
		return out
	}

	created := call(http.MethodPost, "/tasks", map[string]any{"title": "ws smoke", "priority": "low"})
	readMsg()

	task, _ := created["task"].(map[string]any)
	id, _ := task["id"].(string)

	call(http.MethodPost, "/tasks/"+id+"/toggle", nil)
	readMsg()

	call(http.MethodDelete, "/tasks/"+id, nil)
	readMsg()

	logger.Info("smoke test finished")
}
