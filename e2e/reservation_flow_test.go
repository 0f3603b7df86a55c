package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// initializeShow は公演を初期化するセットアップヘルパー
func initializeShow(t *testing.T, server *TestServer, showID string, seats []string) {
	t.Helper()
	body := map[string]interface{}{"seats": seats}
	rec := server.Request("POST", fmt.Sprintf("/api/v1/shows/%s/initialize", showID), body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request("GET", "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ok", resp["database"])
}

// TestE2E_CompleteReservationJourney は初期化から予約確定までの完全なジャーニーをテスト
func TestE2E_CompleteReservationJourney(t *testing.T) {
	server := getTestServer(t)

	showID := "avengers_2026_7pm"
	var hold1ID, booking1ID string

	// 1. 公演初期化
	t.Run("公演初期化", func(t *testing.T) {
		body := map[string]interface{}{
			"seats": []string{"A1", "A2", "A3", "A4", "A5"},
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/shows/%s/initialize", showID), body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, showID, resp["id"])
		assert.Equal(t, float64(5), resp["total_seats"])
	})

	// 2. 空席数確認
	t.Run("空席数確認", func(t *testing.T) {
		rec := server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(5), resp["count"])
	})

	// 3. ユーザー1がA1とA2をホールド
	t.Run("ユーザー1がA1とA2をホールド", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id":          showID,
			"seats":            []string{"A1", "A2"},
			"duration_seconds": 300,
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		hold1ID = resp["id"].(string)
		assert.Equal(t, "active", resp["status"])
		assert.Equal(t, float64(300), resp["duration_seconds"])
		assert.NotEmpty(t, resp["expires_at"])
	})

	// 4. 空席数が減っている
	t.Run("ホールド後の空席数確認", func(t *testing.T) {
		rec := server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(3), resp["count"])
	})

	// 5. ユーザー2がA2とA3をホールドしようとして競合
	t.Run("ユーザー2がA2とA3をホールドして409", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"A2", "A3"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, []interface{}{"A2"}, resp["unavailable_seats"])
		assert.NotEmpty(t, resp["error"])
	})

	// 6. A3はまだ空席のまま（競合ホールドは全席不成立）
	t.Run("競合後もA3は空席のまま", func(t *testing.T) {
		rec := server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(3), resp["count"])
	})

	// 7. ユーザー1が予約確定
	t.Run("ユーザー1が予約確定", func(t *testing.T) {
		rec := server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/book", hold1ID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		booking1ID = resp["id"].(string)
		assert.Equal(t, hold1ID, resp["hold_id"])
		assert.Equal(t, []interface{}{"A1", "A2"}, resp["seats"])
	})

	// 8. 同じホールドの再確定は同じ予約を返す（冪等）
	t.Run("予約確定の再実行は同じ予約を返す", func(t *testing.T) {
		rec := server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/book", hold1ID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, booking1ID, resp["id"], "同じホールドなら同じ予約IDが返るべき")
	})

	// 9. 座席一覧でA1とA2がbookedになっている
	t.Run("座席一覧確認", func(t *testing.T) {
		rec := server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			ShowID string `json:"show_id"`
			Seats  []struct {
				SeatID string `json:"seat_id"`
				Status string `json:"status"`
			} `json:"seats"`
			Counts struct {
				Available int `json:"available"`
				Held      int `json:"held"`
				Booked    int `json:"booked"`
				Total     int `json:"total"`
			} `json:"counts"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)

		require.Len(t, resp.Seats, 5)
		assert.Equal(t, "booked", resp.Seats[0].Status) // A1
		assert.Equal(t, "booked", resp.Seats[1].Status) // A2
		assert.Equal(t, "available", resp.Seats[2].Status)
		assert.Equal(t, 3, resp.Counts.Available)
		assert.Equal(t, 0, resp.Counts.Held)
		assert.Equal(t, 2, resp.Counts.Booked)
		assert.Equal(t, 5, resp.Counts.Total)
	})

	// 10. ユーザー2がA3を改めてホールドして解放
	t.Run("ユーザー2がA3をホールドして解放", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"A3"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var holdResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &holdResp)
		hold2ID := holdResp["id"].(string)

		rec = server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/release", hold2ID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var releaseResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &releaseResp)
		assert.Equal(t, "released", releaseResp["status"])

		// 解放後は空席に戻る
		rec = server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var countResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &countResp)
		assert.Equal(t, float64(3), countResp["count"])
	})
}

// TestE2E_HoldConflict はホールドの競合をテスト
func TestE2E_HoldConflict(t *testing.T) {
	server := getTestServer(t)

	showID := "conflict_show"
	initializeShow(t, server, showID, []string{"VIP1"})

	t.Run("ユーザーAがホールド成功", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"VIP1"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("ユーザーBが同じ座席をホールドしようとして409", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"VIP1"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, []interface{}{"VIP1"}, resp["unavailable_seats"])
	})
}

// TestE2E_ReleaseAndRehold は解放後の再ホールドをテスト
func TestE2E_ReleaseAndRehold(t *testing.T) {
	server := getTestServer(t)

	showID := "rehold_show"
	initializeShow(t, server, showID, []string{"S1"})

	var holdID string

	t.Run("ユーザーAがホールド", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"S1"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		holdID = resp["id"].(string)
	})

	t.Run("ユーザーAが解放", func(t *testing.T) {
		rec := server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/release", holdID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "released", resp["status"])
	})

	t.Run("解放済みホールドの予約確定は400", func(t *testing.T) {
		rec := server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/book", holdID), nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ユーザーBが再ホールドに成功", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"S1"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

// TestE2E_HoldDurationClamp はホールド期限の丸めをテスト
func TestE2E_HoldDurationClamp(t *testing.T) {
	server := getTestServer(t)

	showID := "duration_show"
	initializeShow(t, server, showID, []string{"D1", "D2", "D3"})

	t.Run("未指定ならデフォルト600秒", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id": showID,
			"seats":   []string{"D1"},
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(600), resp["duration_seconds"])
	})

	t.Run("下限未満は60秒に丸められる", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id":          showID,
			"seats":            []string{"D2"},
			"duration_seconds": 5,
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(60), resp["duration_seconds"])
	})

	t.Run("上限超過は1800秒に丸められる", func(t *testing.T) {
		body := map[string]interface{}{
			"show_id":          showID,
			"seats":            []string{"D3"},
			"duration_seconds": 7200,
		}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(1800), resp["duration_seconds"])
	})
}

// TestE2E_ShowLifecycle は公演の初期化からリセットまでをテスト
func TestE2E_ShowLifecycle(t *testing.T) {
	server := getTestServer(t)

	showID := "lifecycle_show"

	t.Run("公演初期化", func(t *testing.T) {
		initializeShow(t, server, showID, []string{"L1", "L2"})
	})

	t.Run("同じ公演の再初期化は409", func(t *testing.T) {
		body := map[string]interface{}{"seats": []string{"L1", "L2"}}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/shows/%s/initialize", showID), body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("存在しない公演の座席取得は404", func(t *testing.T) {
		rec := server.Request("GET", "/api/v1/shows/no_such_show/seats", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ホールドと予約を作ってからリセット", func(t *testing.T) {
		// L1をホールドして確定、L2をホールドしたまま
		body := map[string]interface{}{"show_id": showID, "seats": []string{"L1"}}
		rec := server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		var holdResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &holdResp)

		rec = server.Request("POST", fmt.Sprintf("/api/v1/holds/%s/book", holdResp["id"]), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body = map[string]interface{}{"show_id": showID, "seats": []string{"L2"}}
		rec = server.Request("POST", "/api/v1/holds", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		// リセット
		rec = server.Request("POST", fmt.Sprintf("/api/v1/shows/%s/reset", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resetResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resetResp)
		assert.Equal(t, float64(1), resetResp["shows_reset"])
		assert.Equal(t, float64(2), resetResp["seats_reset"])

		// リセット後は全席available
		rec = server.Request("GET", fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var countResp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &countResp)
		assert.Equal(t, float64(2), countResp["count"])
	})

	t.Run("全公演リセット", func(t *testing.T) {
		initializeShow(t, server, "lifecycle_show_2", []string{"X1"})

		rec := server.Request("POST", "/api/v1/reset", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(2), resp["shows_reset"])
	})
}
