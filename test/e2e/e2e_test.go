//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL = "http://localhost:8080/api"
	adminEmail     = "admin@email.dev"
	adminPass      = "123456"
	e2eEmail       = "e2e_student@example.com"
	e2ePass        = "password123"
)

var (
	baseURL    string
	apiSecret  string
	adminToken string
	createdUID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiSecret = os.Getenv("ADMIN_API_SECRET")

	// Wait briefly for the server to come up.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL[:len(baseURL)-len("/api")] + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	os.Exit(m.Run())
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func call(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func authHeader() map[string]string {
	if adminToken != "" {
		return map[string]string{"Authorization": "Bearer " + adminToken}
	}
	return map[string]string{"X-API-Secret": apiSecret}
}

func Test01_EnsureAdmin(t *testing.T) {
	status, env := call(t, http.MethodPost, "/setup/ensureAdmin", nil, nil)
	if status != http.StatusCreated && status != http.StatusOK {
		t.Fatalf("ensureAdmin: status %d (%v)", status, env.Error)
	}
}

func Test02_IssueToken(t *testing.T) {
	status, env := call(t, http.MethodPost, "/auth/token",
		map[string]string{"email": adminEmail, "password": adminPass}, nil)
	if status != http.StatusOK {
		t.Fatalf("token: status %d (%v)", status, env.Error)
	}
	adminToken, _ = env.Data["token"].(string)
	if adminToken == "" {
		t.Fatalf("no token in response: %v", env.Data)
	}
}

func Test03_CreateStudent(t *testing.T) {
	status, env := call(t, http.MethodPost, "/user/create", map[string]interface{}{
		"email":     e2eEmail,
		"password":  e2ePass,
		"firstName": "E2E",
		"lastName":  "Student",
		"section":   "Harvey",
	}, authHeader())
	if status != http.StatusCreated && status != http.StatusOK {
		t.Fatalf("create: status %d (%v)", status, env.Error)
	}

	if user, ok := env.Data["user"].(map[string]interface{}); ok {
		createdUID, _ = user["uid"].(string)
		if user["curriculum"] != "LSHS" {
			t.Fatalf("curriculum should resolve to LSHS: %v", user)
		}
	} else {
		createdUID, _ = env.Data["uid"].(string)
	}
	if createdUID == "" {
		t.Fatalf("no uid in response: %v", env.Data)
	}
}

func Test04_RosterContainsStudent(t *testing.T) {
	status, env := call(t, http.MethodGet, "/user/getAll", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("getAll: status %d", status)
	}

	users, _ := env.Data["users"].([]interface{})
	for _, raw := range users {
		row, _ := raw.(map[string]interface{})
		if row["uid"] == createdUID {
			if row["section"] != "Harvey" {
				t.Fatalf("roster row section wrong: %v", row)
			}
			return
		}
	}
	t.Fatalf("created student missing from roster")
}

func Test05_UpdateStudent(t *testing.T) {
	status, env := call(t, http.MethodPut, "/user/update", map[string]interface{}{
		"uid":       createdUID,
		"firstName": "Renamed",
	}, authHeader())
	if status != http.StatusOK {
		t.Fatalf("update: status %d (%v)", status, env.Error)
	}
	user, _ := env.Data["user"].(map[string]interface{})
	if user["firstName"] != "Renamed" {
		t.Fatalf("update not applied: %v", user)
	}
}

func Test06_DeleteStudent(t *testing.T) {
	status, env := call(t, http.MethodDelete, "/user/delete?uid="+createdUID, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d (%v)", status, env.Error)
	}
}
