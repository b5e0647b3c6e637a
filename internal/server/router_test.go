package server

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/celerix-dev/celerix-cms/pkg/engine"
)

func startRouter(t *testing.T) (*Router, string) {
	t.Helper()
	store := engine.NewMemStore(nil, nil)
	router := NewRouter(store, nil)

	go router.Listen("0")

	var port string
	for i := 0; i < 20; i++ {
		time.Sleep(25 * time.Millisecond)
		if addr := router.Addr(); addr != nil {
			port = fmt.Sprintf("%d", addr.(*net.TCPAddr).Port)
			break
		}
	}
	if port == "" {
		t.Fatalf("Server did not start in time")
	}
	t.Cleanup(func() { router.Stop() })
	return router, port
}

func TestRouter_TCP_Commands(t *testing.T) {
	_, port := startRouter(t)

	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	send := func(cmd string) string {
		fmt.Fprintf(conn, "%s\n", cmd)
		line, _ := reader.ReadString('\n')
		return line
	}

	if line := send("PING"); line != "PONG\n" {
		t.Errorf("Expected PONG, got %q", line)
	}

	if line := send(`SET articles a1 {"title": "Hello world"}`); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	if line := send("GET articles a1"); line != "OK {\"title\":\"Hello world\"}\n" {
		t.Errorf("Expected OK {\"title\":\"Hello world\"}, got %q", line)
	}

	if line := send("COLLECTIONS"); line != "OK [\"articles\"]\n" {
		t.Errorf("Expected collections list, got %q", line)
	}

	send(`SET activity_log r1 {"createdAt":"2026-01-01T00:00:00Z"}`)
	send(`SET activity_log r2 {"createdAt":"2026-01-02T00:00:00Z"}`)
	line := send("QUERY activity_log createdAt DESC 1")
	if !strings.HasPrefix(line, "OK [{\"id\":\"r2\"") {
		t.Errorf("Expected newest record first, got %q", line)
	}

	if line := send("QUERY activity_log createdAt DESC nope"); !strings.HasPrefix(line, "ERR") {
		t.Errorf("Expected ERR for bad limit, got %q", line)
	}

	if line := send("DEL articles a1"); line != "OK\n" {
		t.Errorf("Expected OK, got %q", line)
	}

	if line := send("GET articles a1"); line != "ERR not found\n" {
		t.Errorf("Expected ERR not found, got %q", line)
	}

	if line := send("GET articles"); !strings.HasPrefix(line, "ERR usage:") {
		t.Errorf("Expected usage error, got %q", line)
	}

	if line := send("SET articles a2 not-json"); line != "ERR invalid json document\n" {
		t.Errorf("Expected invalid json error, got %q", line)
	}

	if line := send("FROB"); !strings.HasPrefix(line, "ERR unknown command") {
		t.Errorf("Expected unknown command error, got %q", line)
	}

	fmt.Fprintf(conn, "QUIT\n")
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := reader.ReadString('\n'); err == nil {
		t.Error("Expected connection to close after QUIT")
	}
}

func TestRouter_Stop(t *testing.T) {
	router, port := startRouter(t)

	if err := router.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)
	if conn, err := net.DialTimeout("tcp", "127.0.0.1:"+port, 200*time.Millisecond); err == nil {
		conn.Close()
		t.Error("Expected dial to fail after Stop")
	}
}

func TestRouter_SetPreservesPayloadWhitespace(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	router := NewRouter(store, nil)

	var out bytes.Buffer
	router.dispatch(&out, `SET articles a1 {"body":"one  two   three", "tab":"a`+"\t\t"+`b"}`)
	if out.String() != "OK\n" {
		t.Fatalf("Expected OK, got %q", out.String())
	}

	doc, err := store.Get("articles", "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc["body"] != "one  two   three" {
		t.Errorf("Body changed: %q", doc["body"])
	}
	if doc["tab"] != "a\t\tb" {
		t.Errorf("Tabs changed: %q", doc["tab"])
	}
}

func TestRouter_SetRequiresPayload(t *testing.T) {
	router := NewRouter(engine.NewMemStore(nil, nil), nil)

	for _, line := range []string{"SET", "SET articles", "SET articles a1", "SET articles a1   "} {
		var out bytes.Buffer
		router.dispatch(&out, strings.TrimSpace(line))
		if !strings.HasPrefix(out.String(), "ERR usage:") {
			t.Errorf("%q: expected usage error, got %q", line, out.String())
		}
	}
}
