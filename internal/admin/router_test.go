package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.mahjong/internal/model"
	"sudooom.im.mahjong/internal/room"
)

type fakeRounds struct {
	tableID string
	limit   int
	rounds  []model.Round
	err     error
}

func (f *fakeRounds) ListByTable(_ context.Context, tableID string, limit int) ([]model.Round, error) {
	f.tableID, f.limit = tableID, limit
	return f.rounds, f.err
}

// APIResponse 用于解析响应体
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, rounds RoundLister) (*gin.Engine, *room.Registry) {
	t.Helper()
	reg := room.NewRegistry(room.Options{})
	t.Cleanup(func() { reg.Shutdown(context.Background()) })

	ready := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return SetupRouter(gin.TestMode, ready, NewTableHandler(reg, rounds)), reg
}

func do(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp APIResponse
	if strings.HasPrefix(path, "/api/") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealthAndReady(t *testing.T) {
	r, _ := setup(t, nil)

	w, _ := do(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListTables(t *testing.T) {
	r, reg := setup(t, nil)
	id, _, err := reg.Create(context.Background(), "s1", "alice")
	require.NoError(t, err)
	_, err = reg.Join(context.Background(), id, "s2", "bob")
	require.NoError(t, err)

	w, resp := do(t, r, "/api/v1/tables")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeSuccess, resp.Code)

	var data struct {
		Total  int `json:"total"`
		Tables []struct {
			ID     string `json:"id"`
			Phase  string `json:"phase"`
			Seated int    `json:"seated"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, 1, data.Total)
	assert.Equal(t, id, data.Tables[0].ID)
	assert.Equal(t, 2, data.Tables[0].Seated)
	assert.Equal(t, "seating", data.Tables[0].Phase)
}

func TestGetTable(t *testing.T) {
	r, reg := setup(t, nil)
	id, _, err := reg.Create(context.Background(), "s1", "alice")
	require.NoError(t, err)

	w, resp := do(t, r, "/api/v1/tables/"+strings.ToLower(id))
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		ID    string `json:"id"`
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	assert.Equal(t, id, snap.ID)
	assert.NotEmpty(t, snap.Phase)

	w, resp = do(t, r, "/api/v1/tables/ZZZZZZ")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeTableNotFound, resp.Code)

	w, resp = do(t, r, "/api/v1/tables/bad-id")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidParams, resp.Code)
}

func TestRounds(t *testing.T) {
	rounds := &fakeRounds{rounds: []model.Round{{ID: "r1", TableID: "ABC123", Round: 1, Outcome: "draw"}}}
	r, _ := setup(t, rounds)

	w, resp := do(t, r, "/api/v1/tables/abc123/rounds?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC123", rounds.tableID)
	assert.Equal(t, 5, rounds.limit)

	var got []model.Round
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)

	w, _ = do(t, r, "/api/v1/tables/ABC123/rounds?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rounds.err = errors.New("db down")
	w, resp = do(t, r, "/api/v1/tables/ABC123/rounds")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeServerError, resp.Code)
	assert.Equal(t, defaultRoundLimit, rounds.limit)
}

func TestRoundsWithoutStore(t *testing.T) {
	r, _ := setup(t, nil)

	w, resp := do(t, r, "/api/v1/tables/ABC123/rounds")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))
}
