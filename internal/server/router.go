// Package server exposes a DocumentStore over a line-oriented TCP protocol.
// SET and DEL are raw storage writes and append nothing to the activity log.
package server

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

const maxConnections = 100

type Router struct {
	store  sdk.DocumentStore
	cert   *tls.Certificate
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewRouter(s sdk.DocumentStore, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{store: s, logger: logger}
}

// SetCertificate sets the TLS certificate for the router
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Addr returns the bound listener address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Listen starts the TCP server and blocks until Stop is called.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}
	return r.Serve(listener)
}

// Serve accepts connections on an existing listener.
func (r *Router) Serve(listener net.Listener) error {
	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()
	defer listener.Close()

	semaphore := make(chan struct{}, maxConnections)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.logger.Warn("server.accept", slog.Any("error", err))
			continue
		}

		// Aggressive timeouts for light traffic to prevent resource exhaustion
		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.HandleConnection(c)
		}(conn)
	}
}

// Stop closes the listener; in-flight connections finish their current command.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

// HandleConnection serves commands from one client until QUIT, EOF or timeout.
func (r *Router) HandleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Debug("server.read", slog.Any("error", err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if quit := r.dispatch(conn, line); quit {
			return
		}
	}
}

func (r *Router) dispatch(w io.Writer, line string) (quit bool) {
	name, rest := cutField(line)
	command := strings.ToUpper(name)
	args := strings.Fields(rest)

	switch command {
	case "PING":
		fmt.Fprintln(w, "PONG")

	case "QUIT":
		return true

	case "GET":
		if len(args) < 2 {
			replyUsage(w, "GET <collection> <id>")
			return false
		}
		doc, err := r.store.Get(args[0], args[1])
		replyJSON(w, doc, err)

	case "SET":
		collection, after := cutField(rest)
		id, payload := cutField(after)
		if payload == "" {
			replyUsage(w, "SET <collection> <id> <json>")
			return false
		}
		// The document is the rest of the line, byte for byte.
		var doc schema.Document
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			fmt.Fprintln(w, "ERR invalid json document")
			return false
		}
		replyOK(w, r.store.Set(collection, id, doc))

	case "DEL":
		if len(args) < 2 {
			replyUsage(w, "DEL <collection> <id>")
			return false
		}
		replyOK(w, r.store.Delete(args[0], args[1]))

	case "LIST":
		if len(args) < 1 {
			replyUsage(w, "LIST <collection>")
			return false
		}
		docs, err := r.store.List(args[0])
		replyJSON(w, docs, err)

	case "COLLECTIONS":
		list, err := r.store.Collections()
		replyJSON(w, list, err)

	case "DUMP":
		all, err := r.store.Dump()
		replyJSON(w, all, err)

	case "QUERY":
		if len(args) < 4 {
			replyUsage(w, "QUERY <collection> <field> <ASC|DESC> <limit>")
			return false
		}
		limit, err := strconv.Atoi(args[3])
		if err != nil || limit < 0 {
			fmt.Fprintln(w, "ERR invalid limit")
			return false
		}
		entries, err := r.store.Query(args[0], schema.Query{
			OrderBy: args[1],
			Desc:    strings.EqualFold(args[2], "DESC"),
			Limit:   limit,
		})
		replyJSON(w, entries, err)

	default:
		fmt.Fprintln(w, "ERR unknown command", command)
	}
	return false
}

// cutField splits off the first whitespace-separated field of s. The rest
// keeps its inner spacing; only the separator run is dropped.
func cutField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func replyUsage(w io.Writer, usage string) {
	fmt.Fprintln(w, "ERR usage:", usage)
}

func replyOK(w io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(w, "ERR", err)
		return
	}
	fmt.Fprintln(w, "OK")
}

func replyJSON(w io.Writer, v any, err error) {
	if err != nil {
		fmt.Fprintln(w, "ERR", err)
		return
	}
	res, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(w, "ERR internal error")
		return
	}
	fmt.Fprintln(w, "OK", string(res))
}
