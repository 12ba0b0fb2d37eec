// Package wireserver implements the line-oriented TCP front-end over the
// query engine: one connection, one request, one response,
// then close. It is deliberately thin and carries no indexing logic of its
// own — every connection opens its own read path over the shared,
// immutable lexicon/page-table/index state.
package wireserver

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/query"
)

// Server accepts connections and evaluates one query per connection using
// the shared, read-only Engine and Lexicon.
type Server struct {
	Engine  query.Engine
	Lexicon *lexicon.Lexicon

	listener net.Listener
	shutdown atomic.Bool
	conns    sync.WaitGroup
}

// ListenAndServe starts the server on addr and blocks: bind once, then
// Accept forever, handing each connection to its own goroutine.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("wireserver: listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln
	log.Printf("wireserver: listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			log.Printf("wireserver: accept error: %v", err)
			continue
		}
		s.conns.Add(1)
		go s.handle(conn)
	}
}

// Shutdown stops accepting new connections and waits for in-flight ones to
// finish responding. If ctx is done first it returns ctx.Err() without
// waiting further; handlers still running are not cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle services exactly one request on conn, per the wire
// format: a newline-terminated "query|mode" request, one "DocId: X, Score:
// Y" line per result, then the connection closes.
func (s *Server) handle(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	if !sc.Scan() {
		return
	}
	line := sc.Text()

	text, modeStr, ok := strings.Cut(line, "|")
	if !ok {
		fmt.Fprintf(conn, "error: malformed request %q\n", line)
		return
	}

	var mode query.Mode
	switch modeStr {
	case "0":
		mode = query.Conjunctive
	case "1":
		mode = query.Disjunctive
	default:
		fmt.Fprintf(conn, "error: unknown mode %q\n", modeStr)
		return
	}

	plan := query.Build(text, s.Lexicon)
	results, err := s.Engine.Run(plan, mode)
	if err != nil {
		log.Printf("wireserver: query %q failed: %v", text, err)
		fmt.Fprintf(conn, "error: %v\n", err)
		return
	}

	w := bufio.NewWriter(conn)
	for _, r := range results {
		fmt.Fprintf(w, "DocId: %s, Score: %s\n",
			strconv.FormatUint(uint64(r.DocID), 10),
			strconv.FormatFloat(r.Score, 'g', -1, 64))
	}
	w.Flush()
}
