package model

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// call is one statement seen by fakeDB.
type call struct {
	SQL  string
	Args []any
}

// fakeDB answers statements from handlers matched by SQL prefix and records
// every call. It is safe for the loader's concurrent use.
type fakeDB struct {
	mu       sync.Mutex
	calls    []call
	handlers []handler
}

type handler struct {
	prefix string
	fn     func(args []any) ([]map[string]any, error)
}

func (f *fakeDB) on(prefix string, fn func(args []any) ([]map[string]any, error)) *fakeDB {
	f.handlers = append(f.handlers, handler{prefix: prefix, fn: fn})
	return f
}

func (f *fakeDB) rows(prefix string, rows ...map[string]any) *fakeDB {
	return f.on(prefix, func([]any) ([]map[string]any, error) {
		return cloneRows(rows), nil
	})
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{SQL: sql, Args: args})
	f.mu.Unlock()

	for _, h := range f.handlers {
		if strings.HasPrefix(sql, h.prefix) {
			return h.fn(args)
		}
	}
	return []map[string]any{}, nil
}

func (f *fakeDB) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.SQL
	}
	return out
}

func (f *fakeDB) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func cloneRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		c := make(map[string]any, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func quiet() Option {
	return WithLogger(zerolog.Nop())
}
