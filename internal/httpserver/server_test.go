package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/battleship/apps/go-server/assets"
	"github.com/robalobadob/battleship/apps/go-server/internal/config"
	"github.com/robalobadob/battleship/apps/go-server/internal/history"
	"github.com/robalobadob/battleship/apps/go-server/internal/httpserver"
	"github.com/robalobadob/battleship/apps/go-server/internal/hub"
	"github.com/robalobadob/battleship/apps/go-server/internal/store"
)

type stateBody struct {
	GameID        string `json:"gameId"`
	Phase         string `json:"phase"`
	CurrentPlayer int    `json:"currentPlayer"`
	ViewerIndex   int    `json:"viewerIndex"`
	Status        string `json:"status"`
	Winner        *int   `json:"winner"`
	Players       []struct {
		Name           string `json:"name"`
		Points         int    `json:"points"`
		ShipsRemaining int    `json:"shipsRemaining"`
	} `json:"players"`
	Boards struct {
		Own      [][]string `json:"own"`
		Opponent [][]string `json:"opponent"`
		Tracking [][]string `json:"tracking"`
	} `json:"boards"`
}

type seatBody struct {
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId"`
	State    stateBody `json:"state"`
}

type moveBody struct {
	Hit        bool      `json:"hit"`
	Sunk       bool      `json:"sunk"`
	SwitchTurn bool      `json:"switch_turn"`
	State      stateBody `json:"state"`
}

type errBody struct {
	Error string `json:"error"`
}

type testEnv struct {
	ts      *httptest.Server
	handler http.Handler
	hub     *hub.Hub
}

func newEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	cfg := &config.Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      []byte("test_secret"),
		TokenTTL:       time.Hour,
		Fleet:          []int{2, 3},
		RequestTimeout: 5 * time.Second,
	}
	var hist *history.Store
	if withHistory {
		db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, history.Migrate(db, assets.Migrations()))
		hist = history.NewStore(db)
	}
	h := hub.New()
	srv := httpserver.New(cfg, store.NewMemoryStore(time.Hour, nil), h, hist)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		h.Stop()
		ts.Close()
	})
	return &testEnv{ts: ts, handler: srv.Handler(), hub: h}
}

// call sends a JSON request and decodes the response into out (if non-nil).
// tok, when set, is sent as a bearer token.
func (e *testEnv) call(t *testing.T, method, path, tok string, body, out interface{}) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (e *testEnv) move(t *testing.T, code, tok string, row, col int) (int, moveBody, errBody) {
	t.Helper()
	var raw json.RawMessage
	status := e.call(t, http.MethodPost, "/games/"+code+"/move", "",
		map[string]interface{}{"playerId": tok, "row": row, "col": col}, &raw)
	var mb moveBody
	var eb errBody
	if status == http.StatusOK {
		require.NoError(t, json.Unmarshal(raw, &mb))
	} else {
		require.NoError(t, json.Unmarshal(raw, &eb))
	}
	return status, mb, eb
}

func place(row, col int, dir string, length int) map[string]interface{} {
	return map[string]interface{}{"row": row, "col": col, "direction": dir, "length": length}
}

func TestHealth(t *testing.T) {
	e := newEnv(t, false)
	var out map[string]bool
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/health", "", nil, &out))
	require.True(t, out["ok"])

	var nf errBody
	require.Equal(t, http.StatusNotFound, e.call(t, http.MethodGet, "/nope", "", nil, &nf))
	require.Equal(t, "not_found", nf.Error)
}

func TestFullMatch(t *testing.T) {
	e := newEnv(t, true)

	var created seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "",
		map[string]interface{}{"name": "ann", "randomizeOpponent": false}, &created))
	code, tok0 := created.GameID, created.PlayerID
	require.Len(t, code, 4)
	require.NotEmpty(t, tok0)
	require.Equal(t, "waiting", created.State.Phase)
	require.Equal(t, 0, created.State.ViewerIndex)
	require.Equal(t, "ann", created.State.Players[0].Name)

	status, _, eb := e.move(t, code, tok0, 0, 0)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "waiting_for_opponent", eb.Error)

	var joined seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": strings.ToLower(code), "name": "bob"}, &joined))
	tok1 := joined.PlayerID
	require.NotEmpty(t, tok1)
	require.Equal(t, 1, joined.State.ViewerIndex)
	require.Equal(t, "setup", joined.State.Phase)
	require.Equal(t, "bob", joined.State.Players[1].Name)

	var full errBody
	require.Equal(t, http.StatusConflict, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": code}, &full))

	status, _, eb = e.move(t, code, tok0, 0, 0)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "fleet_incomplete", eb.Error)

	// ann: (0,0)-(0,1) and (2,0)-(2,2)
	var st stateBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/place", "",
		map[string]interface{}{"playerId": tok0, "placements": []interface{}{
			place(0, 0, "H", 2), place(2, 0, "horizontal", 3),
		}}, &st))
	require.Equal(t, "setup", st.Phase)
	require.Equal(t, "ship", st.Boards.Own[0][1])
	require.Equal(t, "ship", st.Boards.Own[2][2])
	require.Equal(t, "water", st.Boards.Own[1][0])

	// bob: (0,0)-(1,0) and (0,5)-(2,5); token sent as a bearer header
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/place", tok1,
		map[string]interface{}{"placements": []interface{}{
			place(0, 0, "V", 2), place(0, 5, "v", 3),
		}}, &st))
	require.Equal(t, "playing", st.Phase)

	status, _, eb = e.move(t, code, tok1, 0, 0)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "not_your_turn", eb.Error)

	status, mb, _ := e.move(t, code, tok0, 0, 0)
	require.Equal(t, http.StatusOK, status)
	require.True(t, mb.Hit)
	require.False(t, mb.Sunk)
	require.False(t, mb.SwitchTurn)

	status, _, _ = e.move(t, code, tok0, 0, 0)
	require.Equal(t, http.StatusBadRequest, status, "duplicate target")
	status, _, _ = e.move(t, code, tok0, 10, 0)
	require.Equal(t, http.StatusBadRequest, status, "out of bounds")

	status, mb, _ = e.move(t, code, tok0, 1, 0)
	require.Equal(t, http.StatusOK, status)
	require.True(t, mb.Sunk)
	require.Equal(t, 1, mb.State.Players[1].ShipsRemaining)

	status, mb, _ = e.move(t, code, tok0, 9, 9)
	require.Equal(t, http.StatusOK, status)
	require.False(t, mb.Hit)
	require.True(t, mb.SwitchTurn)
	require.Equal(t, 1, mb.State.CurrentPlayer)

	// ann's view of bob hides his ships
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/games/"+code+"/state?playerId="+tok0, "", nil, &st))
	require.Equal(t, "hit", st.Boards.Tracking[0][0])
	require.Equal(t, "miss", st.Boards.Tracking[9][9])
	require.Equal(t, "water", st.Boards.Opponent[9][9])
	for _, row := range st.Boards.Opponent {
		require.NotContains(t, row, "ship")
	}

	// bob sees incoming fire on his own board
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/games/"+code+"/state", tok1, nil, &st))
	require.Equal(t, "hit", st.Boards.Own[0][0])
	require.Equal(t, "miss", st.Boards.Own[9][9])
	require.Equal(t, "ship", st.Boards.Own[0][5])

	for _, c := range [][2]int{{0, 0}, {0, 1}, {2, 0}, {2, 1}, {2, 2}} {
		status, mb, eb = e.move(t, code, tok1, c[0], c[1])
		require.Equal(t, http.StatusOK, status, eb.Error)
		require.True(t, mb.Hit)
	}
	require.Equal(t, "finished", mb.State.Status)
	require.Equal(t, "finished", mb.State.Phase)
	require.NotNil(t, mb.State.Winner)
	require.Equal(t, 1, *mb.State.Winner)

	status, _, eb = e.move(t, code, tok1, 5, 5)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "game_over", eb.Error)

	var recent []history.Match
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/history/recent", "", nil, &recent))
	require.Len(t, recent, 1)
	require.Equal(t, code, recent[0].Code)
	require.Equal(t, [2]string{"ann", "bob"}, recent[0].Players)
	require.Equal(t, [2]int{2, 5}, recent[0].Scores)
	require.Equal(t, 1, recent[0].Winner)
	require.Equal(t, 8, recent[0].Moves)

	var lb []history.LBRow
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/history/leaderboard?limit=5", "", nil, &lb))
	require.Equal(t, []history.LBRow{{Name: "bob", Wins: 1, Played: 1}, {Name: "ann", Wins: 0, Played: 1}}, lb)

	var ok map[string]bool
	require.Equal(t, http.StatusOK, e.call(t, http.MethodDelete, "/games/"+code, tok0, nil, &ok))
	require.True(t, ok["ok"])
	require.Equal(t, http.StatusNotFound, e.call(t, http.MethodGet, "/games/"+code+"/state", tok0, nil, nil))
}

func TestPlacementErrors(t *testing.T) {
	e := newEnv(t, false)
	var created seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "", nil, &created))
	code, tok := created.GameID, created.PlayerID

	cases := map[string][]interface{}{
		"bad direction":       {place(0, 0, "diagonal", 2)},
		"length not in fleet": {place(0, 0, "H", 4)},
		"off board":           {place(0, 9, "H", 2)},
		"overlap in batch":    {place(0, 0, "H", 2), place(0, 0, "V", 3)},
		"empty":               {},
	}
	for name, ps := range cases {
		t.Run(name, func(t *testing.T) {
			var eb errBody
			status := e.call(t, http.MethodPost, "/games/"+code+"/place", tok,
				map[string]interface{}{"placements": ps}, &eb)
			require.Equal(t, http.StatusBadRequest, status)
			require.NotEmpty(t, eb.Error)
		})
	}

	// a rejected batch leaves nothing behind
	var st stateBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/games/"+code+"/state", tok, nil, &st))
	for _, row := range st.Boards.Own {
		require.NotContains(t, row, "ship")
	}

	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/randomize", tok, nil, &st))
	ships := 0
	for _, row := range st.Boards.Own {
		for _, c := range row {
			if c == "ship" {
				ships++
			}
		}
	}
	require.Equal(t, 5, ships)
	require.Equal(t, "waiting", st.Phase)
}

func TestSeatTokens(t *testing.T) {
	e := newEnv(t, false)
	var a, b seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "", nil, &a))
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "", nil, &b))

	path := "/games/" + a.GameID + "/state"
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, path, a.PlayerID, nil, nil))
	require.Equal(t, http.StatusForbidden, e.call(t, http.MethodGet, path, "", nil, nil), "missing token")
	require.Equal(t, http.StatusForbidden, e.call(t, http.MethodGet, path, b.PlayerID, nil, nil), "token for another game")
	require.Equal(t, http.StatusForbidden, e.call(t, http.MethodGet, path, a.PlayerID+"x", nil, nil), "tampered token")
	require.Equal(t, http.StatusNotFound, e.call(t, http.MethodGet, "/games/ZZZZ/state", a.PlayerID, nil, nil))
}

func TestPrivateGame(t *testing.T) {
	e := newEnv(t, false)
	var created seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "",
		map[string]interface{}{"passcode": "s3cret"}, &created))

	var eb errBody
	require.Equal(t, http.StatusForbidden, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": created.GameID, "passcode": "guess"}, &eb))
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": created.GameID, "passcode": "s3cret"}, nil))
}

func TestWebsocketPushesStateAfterMove(t *testing.T) {
	e := newEnv(t, false)
	var created, joined seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "", nil, &created))
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": created.GameID}, &joined))
	code := created.GameID
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/randomize", created.PlayerID, nil, nil))

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/games/" + code + "/ws?playerId=" + joined.PlayerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	type frame struct {
		Type  string    `json:"type"`
		State stateBody `json:"state"`
	}
	var first frame
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "state", first.Type)
	require.Equal(t, 1, first.State.ViewerIndex)
	require.Equal(t, "playing", first.State.Phase)
	require.Equal(t, 1, e.hub.Count(code))

	status, _, eb := e.move(t, code, created.PlayerID, 4, 4)
	require.Equal(t, http.StatusOK, status, eb.Error)

	var next frame
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, "state", next.Type)
	require.NotEqual(t, "ship", next.State.Boards.Own[4][4], "seat 1 sees the incoming shot")
	require.Contains(t, []string{"hit", "miss"}, next.State.Boards.Own[4][4])

	_, _, err = websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(e.ts.URL, "http")+"/games/"+code+"/ws", nil)
	require.Error(t, err, "upgrade refused without a token")
}

func TestWebsocketRejectsOversizedClientFrames(t *testing.T) {
	e := newEnv(t, false)
	var created seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "", nil, &created))

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/games/" + created.GameID + "/ws?playerId=" + created.PlayerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first map[string]interface{}
	require.NoError(t, conn.ReadJSON(&first))

	big := strings.Repeat("x", 4096)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "state", "pad": big}))

	var next map[string]interface{}
	err = conn.ReadJSON(&next)
	require.Error(t, err)
	require.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestFinishedMatchIsRecordedAfterClientHangsUp(t *testing.T) {
	e := newEnv(t, true)

	var created, joined seatBody
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games", "",
		map[string]interface{}{"name": "ann", "randomizeOpponent": false}, &created))
	code, tok0 := created.GameID, created.PlayerID
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/join", "",
		map[string]interface{}{"gameId": code, "name": "bob"}, &joined))
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/randomize", tok0, nil, nil))
	require.Equal(t, http.StatusOK, e.call(t, http.MethodPost, "/games/"+code+"/place", joined.PlayerID,
		map[string]interface{}{"placements": []interface{}{
			place(0, 0, "V", 2), place(0, 5, "V", 3),
		}}, nil))

	for _, c := range [][2]int{{0, 0}, {1, 0}, {0, 5}, {1, 5}} {
		status, mb, eb := e.move(t, code, tok0, c[0], c[1])
		require.Equal(t, http.StatusOK, status, eb.Error)
		require.True(t, mb.Hit)
	}

	// final shot on a request whose context is already cancelled
	body, err := json.Marshal(map[string]interface{}{"playerId": tok0, "row": 2, "col": 5})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/games/"+code+"/move", bytes.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var recent []history.Match
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/history/recent", "", nil, &recent))
	require.Len(t, recent, 1)
	require.Equal(t, code, recent[0].Code)
	require.Equal(t, 0, recent[0].Winner)
}
