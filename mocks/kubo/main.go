// Command kubo serves the three block endpoints of the Kubo HTTP API from
// process memory, so the IPFS store backend can run in development and
// end-to-end environments without a real IPFS daemon.
//
// Like Kubo, it reports errors as a JSON body with status 500; a missing
// block is a "not found" message, not an HTTP 404.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func main() {
	fs := flag.NewFlagSet("kubo", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:5001", "address to serve the block API on")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	srv := &server{blocks: make(map[string][]byte)}
	log.Printf("mock kubo block API listening on %s", *listen)
	if err := http.ListenAndServe(*listen, srv); err != nil {
		log.Fatal(err)
	}
}

type server struct {
	mu     sync.Mutex
	blocks map[string][]byte
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v0/block/put":
		s.handlePut(w, r)
	case "/api/v0/block/get":
		s.handleGet(w, r)
	case "/api/v0/block/stat":
		s.handleStat(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *server) handlePut(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, "file argument required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "read block: "+err.Error())
		return
	}
	id, err := addressFor(data)
	if err != nil {
		writeError(w, "hash block: "+err.Error())
		return
	}

	s.mu.Lock()
	s.blocks[id.String()] = data
	s.mu.Unlock()

	writeJSON(w, map[string]any{"Key": id.String(), "Size": len(data)})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	arg := r.URL.Query().Get("arg")
	s.mu.Lock()
	data, ok := s.blocks[arg]
	s.mu.Unlock()
	if !ok {
		writeError(w, fmt.Sprintf("ipld: could not find %s: not found", arg))
		return
	}
	_, _ = w.Write(data)
}

func (s *server) handleStat(w http.ResponseWriter, r *http.Request) {
	arg := r.URL.Query().Get("arg")
	s.mu.Lock()
	data, ok := s.blocks[arg]
	s.mu.Unlock()
	if !ok {
		writeError(w, fmt.Sprintf("blockstore: block not found: %s", arg))
		return
	}
	writeJSON(w, map[string]any{"Key": arg, "Size": len(data)})
}

// addressFor derives the CIDv1 (raw codec, sha2-256) the attestry stores
// expect for data.
func addressFor(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"Message": msg, "Code": 0, "Type": "error"})
}
