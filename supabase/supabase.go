package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	supa "github.com/nedpals/supabase-go"
)

const defaultInsertTimeout = 10 * time.Second

// Client inserts gateway rows into a Supabase postgrest schema. The library client is built lazily and rebuilt after
// any failed or timed out insert.
type Client struct {
	url     string
	anonKey string
	userKey string
	schema  string

	insertTimeout time.Duration

	db     *supa.Client
	stale  bool // db must be rebuilt before the next insert
	logger *slog.Logger
}

func New(url, anonKey, userKey, schema string) (*Client, error) {
	if url == "" {
		return nil, errors.New("no supabase url")
	}
	if anonKey == "" {
		return nil, errors.New("no supabase key")
	}

	return &Client{
		url:           url,
		anonKey:       anonKey,
		userKey:       userKey,
		schema:        schema,
		insertTimeout: defaultInsertTimeout,
		stale:         true,
		logger:        slog.Default().With("host", url),
	}, nil
}

// Upload inserts `rows`, already in their json schema, into `table`.
func (c *Client) Upload(table string, rows interface{}) error {
	c.ensureConnected()

	// the library takes no context, so the insert runs on its own goroutine and is abandoned on timeout
	errCh := make(chan error, 1)
	db := c.db
	go func() {
		errCh <- db.DB.From(table).Insert(rows).Execute(nil)
	}()

	select {
	case <-time.After(c.insertTimeout):
		c.stale = true
		return fmt.Errorf("insert into %s timed out after %s", table, c.insertTimeout)
	case err := <-errCh:
		if err != nil {
			c.stale = true
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		return nil
	}
}

// ensureConnected rebuilds the library client when it is stale.
func (c *Client) ensureConnected() {
	if !c.stale {
		return
	}

	db := supa.CreateClient(c.url, c.anonKey)
	if c.schema != "" {
		db.DB.AddHeader("Accept-Profile", c.schema)
		db.DB.AddHeader("Content-Profile", c.schema)
	}
	if c.userKey != "" {
		db.DB.AddHeader("Authorization", "Bearer "+c.userKey)
	}

	c.db = db
	c.stale = false
	c.logger.Info("Connected to supabase", "schema", c.schema)
}
