// Package sdk provides the client-side library for interacting with the Celerix CMS store.
// It supports both remote connections via TCP/TLS and local embedded mode.
package sdk

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

const maxAttempts = 3

// Client is a remote client for the store daemon.
// It implements the DocumentStore interface.
type Client struct {
	addr       string
	disableTLS bool
	conn       net.Conn
	reader     *bufio.Reader
	mu         sync.Mutex // Protects concurrent access to the connection
	logger     *slog.Logger
}

// Connect establishes a connection to a remote store daemon.
// TLS is used unless disableTLS is set.
func Connect(addr string, disableTLS bool) (*Client, error) {
	c := &Client{addr: addr, disableTLS: disableTLS, logger: slog.Default()}
	if err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	var conn net.Conn
	var err error

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	if c.disableTLS {
		conn, err = dialer.Dial("tcp", c.addr)
	} else {
		config := &tls.Config{
			InsecureSkipVerify: true, // The daemon uses a self-signed cert for internal traffic
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, config)
	}

	if err != nil {
		return err
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// sendAndReceive sends one command and returns the payload after "OK".
func (c *Client) sendAndReceive(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	var resp string

	for i := 0; i < maxAttempts; i++ {
		if c.conn == nil {
			if reconnectErr := c.reconnect(); reconnectErr != nil {
				err = fmt.Errorf("reconnect failed: %w", reconnectErr)
				time.Sleep(time.Duration(i*100) * time.Millisecond)
				continue
			}
		}

		c.conn.SetDeadline(time.Now().Add(30 * time.Second))

		_, err = fmt.Fprint(c.conn, cmd+"\n")
		if err == nil {
			resp, err = c.reader.ReadString('\n')
			if err == nil {
				resp = strings.TrimSpace(resp)
				if strings.HasPrefix(resp, "ERR") {
					return "", remoteError(strings.TrimSpace(strings.TrimPrefix(resp, "ERR")))
				}
				return strings.TrimSpace(strings.TrimPrefix(resp, "OK")), nil
			}
		}

		c.logger.Warn("sdk.request failed, reconnecting", slog.Int("attempt", i+1), slog.Any("error", err))

		// Force a reconnect on the next iteration
		if closeErr := c.reconnect(); closeErr != nil {
			c.logger.Warn("sdk.reconnect failed", slog.Any("error", closeErr))
		}

		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

// remoteError restores sentinel errors that crossed the wire as text.
func remoteError(msg string) error {
	switch {
	case msg == schema.ErrNotFound.Error():
		return schema.ErrNotFound
	case strings.HasPrefix(msg, schema.ErrInvalidDocument.Error()):
		return fmt.Errorf("%w%s", schema.ErrInvalidDocument, strings.TrimPrefix(msg, schema.ErrInvalidDocument.Error()))
	}
	return errors.New(msg)
}

func (c *Client) Get(collection, id string) (schema.Document, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("GET %s %s", collection, id))
	if err != nil {
		return nil, err
	}
	var doc schema.Document
	err = json.Unmarshal([]byte(resp), &doc)
	return doc, err
}

func (c *Client) Set(collection, id string, doc schema.Document) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.sendAndReceive(fmt.Sprintf("SET %s %s %s", collection, id, string(jsonData)))
	return err
}

func (c *Client) Delete(collection, id string) error {
	_, err := c.sendAndReceive(fmt.Sprintf("DEL %s %s", collection, id))
	return err
}

func (c *Client) List(collection string) (map[string]schema.Document, error) {
	resp, err := c.sendAndReceive(fmt.Sprintf("LIST %s", collection))
	if err != nil {
		return nil, err
	}
	var docs map[string]schema.Document
	err = json.Unmarshal([]byte(resp), &docs)
	return docs, err
}

func (c *Client) Collections() ([]string, error) {
	resp, err := c.sendAndReceive("COLLECTIONS")
	if err != nil {
		return nil, err
	}
	var list []string
	err = json.Unmarshal([]byte(resp), &list)
	return list, err
}

func (c *Client) Dump() (map[string]map[string]schema.Document, error) {
	resp, err := c.sendAndReceive("DUMP")
	if err != nil {
		return nil, err
	}
	var all map[string]map[string]schema.Document
	err = json.Unmarshal([]byte(resp), &all)
	return all, err
}

func (c *Client) Query(collection string, q schema.Query) ([]schema.Entry, error) {
	order := "ASC"
	if q.Desc {
		order = "DESC"
	}
	field := q.OrderBy
	if field == "" {
		field = "-"
	}
	limit := q.Limit
	if limit < 0 {
		limit = 0
	}
	resp, err := c.sendAndReceive(fmt.Sprintf("QUERY %s %s %s %d", collection, field, order, limit))
	if err != nil {
		return nil, err
	}
	var entries []schema.Entry
	err = json.Unmarshal([]byte(resp), &entries)
	return entries, err
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	_, err := c.sendAndReceive("PING")
	return err
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	fmt.Fprintln(c.conn, "QUIT")
	return c.conn.Close()
}
