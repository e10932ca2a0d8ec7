package controller

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"raffle-panel/database"
	"raffle-panel/database/model"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	if err := database.InitDB(filepath.Join(t.TempDir(), "raffle.db")); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewAPIController(engine.Group("/"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeMsg(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var msg map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response failed: %v (body: %s)", err, w.Body.String())
	}
	return msg
}

func TestItemCRUD(t *testing.T) {
	engine := setupRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{"name": "Radio"})
	msg := decodeMsg(t, w)
	if msg["success"] != true {
		t.Fatalf("add item failed: %v", msg)
	}

	w = doJSON(t, engine, http.MethodPost, "/api/items", map[string]any{"imageUrl": "x.png"})
	msg = decodeMsg(t, w)
	if msg["success"] != false {
		t.Fatal("add item without name should fail")
	}

	w = doJSON(t, engine, http.MethodGet, "/api/items", nil)
	msg = decodeMsg(t, w)
	items, ok := msg["obj"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v, want 1 item", msg["obj"])
	}
	item := items[0].(map[string]any)
	if item["order"] != float64(1) {
		t.Errorf("order = %v, want 1 assigned", item["order"])
	}

	w = doJSON(t, engine, http.MethodDelete, "/api/items?id=1", nil)
	msg = decodeMsg(t, w)
	if msg["success"] != true {
		t.Fatalf("delete item failed: %v", msg)
	}

	w = doJSON(t, engine, http.MethodDelete, "/api/items", nil)
	msg = decodeMsg(t, w)
	if msg["success"] != false {
		t.Fatal("delete item without id should fail")
	}
}

func TestParticipantBatchImport(t *testing.T) {
	engine := setupRouter(t)

	t.Run("single", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/participants",
			map[string]any{"name": "Ana", "identifier": "T-001"})
		msg := decodeMsg(t, w)
		if msg["success"] != true {
			t.Fatalf("add participant failed: %v", msg)
		}
	})

	t.Run("array", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/participants", []map[string]any{
			{"name": "Bia"},
			{"name": "Caio", "identifier": "T-003"},
		})
		msg := decodeMsg(t, w)
		if msg["success"] != true {
			t.Fatalf("batch add failed: %v", msg)
		}
		obj := msg["obj"].(map[string]any)
		if obj["count"] != float64(2) {
			t.Errorf("count = %v, want 2", obj["count"])
		}
	})

	t.Run("array with missing name is rejected whole", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/participants", []map[string]any{
			{"name": "Dan"},
			{"identifier": "T-005"},
		})
		msg := decodeMsg(t, w)
		if msg["success"] != false {
			t.Fatal("batch with nameless participant should fail")
		}

		w = doJSON(t, engine, http.MethodGet, "/api/participants", nil)
		msg = decodeMsg(t, w)
		participants := msg["obj"].([]any)
		if len(participants) != 3 {
			t.Errorf("participants = %d, want 3 (rejected batch not partially applied)", len(participants))
		}
	})
}

func TestExportCSV(t *testing.T) {
	engine := setupRouter(t)

	id := "T-001"
	winner := &model.Participant{Name: "Ana", Identifier: &id, HasWon: true}
	if err := database.AddParticipant(winner); err != nil {
		t.Fatalf("add participant failed: %v", err)
	}
	now := time.Now()
	err := database.AddItem(&model.Item{
		Name: "Radio", Order: 1, WinnerId: &winner.Id, RaffledAt: &now,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := database.AddItem(&model.Item{Name: "TV", Order: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	w := doJSON(t, engine, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "raffle-results-") {
		t.Errorf("content disposition = %q, want raffle-results filename", cd)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("csv rows = %d, want header + 1 raffled item", len(records))
	}
	header := records[0]
	want := []string{"Order", "Item Name", "Winner Name", "Winner ID", "Raffled At"}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}
	row := records[1]
	if row[0] != "1" || row[1] != "Radio" || row[2] != "Ana" || row[3] != "T-001" {
		t.Errorf("row = %v, want [1 Radio Ana T-001 ...]", row)
	}
}
