// Package httpapi implements the streaming HTTP surface (C6): four
// read-only endpoints over a mempool.Store, each written directly to the
// response writer without buffering the full payload.
package httpapi

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dev7ba/mempool-server/mempool"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// binaryPreambleMagic opens every /txsdata* response, big-endian.
const binaryPreambleMagic uint64 = 0xFFFFFFFFFFFFFFFF

// Server serves the mempool streaming API over a mempool.Store.
type Server struct {
	store *mempool.Store
	log   logger.Logger
	http  *http.Server
}

// New builds a Server bound to addr, mounting every endpoint under
// prefix (e.g. "/mempool").
func New(addr, prefix string, store *mempool.Store, log logger.Logger) *Server {
	s := &Server{store: store, log: log.Module("httpapi")}

	router := mux.NewRouter()
	sub := router.PathPrefix(prefix).Subrouter()
	sub.HandleFunc("/size", s.handleSize).Methods(http.MethodGet)
	sub.HandleFunc("/txsids", s.handleTxsIds).Methods(http.MethodGet)
	sub.HandleFunc("/txsdata", s.handleTxsData).Methods(http.MethodGet)
	sub.HandleFunc("/txsdatafrom/{from}", s.handleTxsDataFrom).Methods(http.MethodGet)

	s.http = &http.Server{Addr: addr, Handler: router}
	return s
}

// ListenAndServe blocks serving until the server is shut down, matching
// net/http.Server's contract: it always returns a non-nil error, and
// http.ErrServerClosed signals a clean Shutdown/Close.
func (s *Server) ListenAndServe() error {
	s.log.Info("http streamer listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Close stops accepting new connections and immediately closes every
// open one, including responses still streaming.
func (s *Server) Close() error {
	return s.http.Close()
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", s.store.Size())
}

func (s *Server) handleTxsIds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)

	s.store.IterIds(func(id types.TxId, _ types.Seq) bool {
		fmt.Fprintf(w, "%s\n", id.String())
		if flusher != nil {
			flusher.Flush()
		}
		return true
	})
}

func (s *Server) handleTxsData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	flusher, _ := w.(http.Flusher)

	sizeHint := uint32(s.store.Size())
	counter := uint64(s.store.Counter())

	var preambleSent bool
	s.store.IterData(func(seq types.Seq, data types.TxBytes) bool {
		if !preambleSent {
			writePreamble(w, &sizeHint)
			binary.Write(w, binary.BigEndian, counter)
			preambleSent = true
		}
		writeFrame(w, data)
		if flusher != nil {
			flusher.Flush()
		}
		return true
	})
}

func (s *Server) handleTxsDataFrom(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	flusher, _ := w.(http.Flusher)

	vars := mux.Vars(r)
	from, err := strconv.ParseUint(vars["from"], 10, 64)
	if err != nil {
		http.Error(w, "invalid from value", http.StatusBadRequest)
		return
	}

	counter := uint64(s.store.Counter())

	var preambleSent bool
	s.store.IterDataFrom(types.Seq(from), func(seq types.Seq, data types.TxBytes) bool {
		if !preambleSent {
			writePreamble(w, nil)
			binary.Write(w, binary.BigEndian, counter)
			preambleSent = true
		}
		writeFrame(w, data)
		if flusher != nil {
			flusher.Flush()
		}
		return true
	})
}

// writePreamble writes the 8-byte magic, followed by the 4-byte size
// hint when sizeHint is non-nil (/txsdatafrom passes nil to omit it).
func writePreamble(w http.ResponseWriter, sizeHint *uint32) {
	binary.Write(w, binary.BigEndian, binaryPreambleMagic)
	if sizeHint != nil {
		binary.Write(w, binary.BigEndian, *sizeHint)
	}
}

func writeFrame(w http.ResponseWriter, data types.TxBytes) {
	binary.Write(w, binary.BigEndian, uint32(len(data)))
	w.Write(data)
}
