package httpapi

import (
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev7ba/mempool-server/mempool"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// testLogger is a no-op logger.Logger used to keep test output quiet.
type testLogger struct{}

func (testLogger) SetToDebug()                     {}
func (testLogger) SetToInfo()                      {}
func (testLogger) SetToError()                     {}
func (t testLogger) Module(string) logger.Logger   { return t }
func (testLogger) Debug(string, ...interface{})    {}
func (testLogger) Info(string, ...interface{})     {}
func (testLogger) Warn(string, ...interface{})     {}
func (testLogger) Error(string, ...interface{})    {}
func (testLogger) Fatal(string, ...interface{})    {}

var _ logger.Logger = testLogger{}

func newTestServer(store *mempool.Store) *Server {
	return New("127.0.0.1:0", "/mempool", store, testLogger{})
}

func routerFor(s *Server) *mux.Router {
	return s.http.Handler.(*mux.Router)
}

func TestHandleSizeEmptyStore(t *testing.T) {
	s := newTestServer(mempool.NewStore())
	req := httptest.NewRequest(http.MethodGet, "/mempool/size", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Body.String())
}

func TestHandleTxsDataEmptyStoreYieldsEmptyBody(t *testing.T) {
	s := newTestServer(mempool.NewStore())
	req := httptest.NewRequest(http.MethodGet, "/mempool/txsdata", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleTxsDataFramingRoundTrips(t *testing.T) {
	store := mempool.NewStore()
	var id1, id2 types.TxId
	id1[0] = 1
	id2[0] = 2
	store.Insert(id1, types.TxBytes("hello"))
	store.Insert(id2, types.TxBytes("world!"))

	s := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/mempool/txsdata", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	body := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(body), 20)

	magic := binary.BigEndian.Uint64(body[0:8])
	assert.Equal(t, binaryPreambleMagic, magic)

	sizeHint := binary.BigEndian.Uint32(body[8:12])
	assert.Equal(t, uint32(2), sizeHint)

	counter := binary.BigEndian.Uint64(body[12:20])
	assert.Equal(t, uint64(2), counter)

	offset := 20
	var frames [][]byte
	for offset < len(body) {
		length := binary.BigEndian.Uint32(body[offset : offset+4])
		offset += 4
		frames = append(frames, body[offset:offset+int(length)])
		offset += int(length)
	}

	require.Len(t, frames, 2)
	assert.ElementsMatch(t, []string{"hello", "world!"}, []string{string(frames[0]), string(frames[1])})
}

func TestHandleTxsDataFromOmitsSizeHint(t *testing.T) {
	store := mempool.NewStore()
	var id1, id2, id3 types.TxId
	id1[0], id2[0], id3[0] = 1, 2, 3
	store.Insert(id1, types.TxBytes("a"))
	store.Insert(id2, types.TxBytes("b"))
	store.Insert(id3, types.TxBytes("c"))

	s := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/mempool/txsdatafrom/1", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	body := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(body), 16)
	assert.Equal(t, binaryPreambleMagic, binary.BigEndian.Uint64(body[0:8]))

	offset := 16
	var frames [][]byte
	for offset < len(body) {
		length := binary.BigEndian.Uint32(body[offset : offset+4])
		offset += 4
		frames = append(frames, body[offset:offset+int(length)])
		offset += int(length)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, []string{string(frames[0]), string(frames[1])})
}

func TestHandleTxsIdsListsOneIdPerLine(t *testing.T) {
	store := mempool.NewStore()
	var id types.TxId
	id[0] = 7
	store.Insert(id, types.TxBytes("x"))

	s := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/mempool/txsids", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, id.String()+"\n", string(body))
}

func TestHandleTxsDataFromRejectsNonNumericFrom(t *testing.T) {
	s := newTestServer(mempool.NewStore())
	req := httptest.NewRequest(http.MethodGet, "/mempool/txsdatafrom/notanumber", nil)
	rec := httptest.NewRecorder()
	routerFor(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
