package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

// Walks the notes API against a running server:
//
//	NOTESYNC_TOKEN=... go run ./scripts
var (
	baseURL   = envOr("NOTESYNC_BASE_URL", "http://localhost:3000/api")
	userToken = os.Getenv("NOTESYNC_TOKEN")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Printf("%s\n", body)
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if userToken != "" {
		req.Header.Set("Authorization", "Bearer "+userToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title, method, url string, body interface{}, want int) []byte {
	color.Yellow("\n%s", title)
	resp, respBody, err := sendRequest(method, url, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode != want {
		color.Red("Status: %s (want %d)", resp.Status, want)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	if len(respBody) > 0 {
		prettyPrint(respBody)
	}
	return respBody
}

func main() {
	if userToken == "" {
		color.Red("NOTESYNC_TOKEN is not set")
		os.Exit(1)
	}
	color.Cyan("🚀 Starting Notes API Smoke Test\n")

	var ids []string
	for _, title := range []string{"Smoke A", "Smoke B", "Smoke C"} {
		body := step("[NOTES] Create "+title, http.MethodPost, "/notes",
			map[string]string{"title": title, "content": "smoke test"}, http.StatusCreated)
		var created struct {
			Id string `json:"id"`
		}
		_ = json.Unmarshal(body, &created)
		ids = append(ids, created.Id)
	}

	step("[NOTES] First page", http.MethodGet, "/notes?page=1&pageSize=10&sortBy=position:asc", nil, http.StatusOK)

	items := []map[string]interface{}{
		{"id": ids[2], "position": 0},
		{"id": ids[0], "position": 1},
		{"id": ids[1], "position": 2},
	}
	step("[NOTES] Reorder C before A", http.MethodPost, "/notes/reorder", map[string]interface{}{"items": items}, http.StatusOK)
	step("[NOTES] Reorder with an unknown id", http.MethodPost, "/notes/reorder",
		map[string]interface{}{"items": []map[string]interface{}{{"id": "00000000-0000-0000-0000-000000000000", "position": 0}}},
		http.StatusForbidden)

	step("[NOTES] Favorite B", http.MethodPatch, "/notes/"+ids[1]+"/favorite", map[string]bool{"isFavorite": true}, http.StatusOK)
	step("[NOTES] Favorites only", http.MethodGet, "/notes?isFavorite=true", nil, http.StatusOK)

	for _, id := range ids {
		step("[NOTES] Cleanup "+id, http.MethodDelete, "/notes/"+id, nil, http.StatusNoContent)
	}

	color.Cyan("\n✅ Test Sequence Complete")
}
