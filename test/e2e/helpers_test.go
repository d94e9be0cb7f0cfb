//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// fitplanServer manages a running fitplan server process.
type fitplanServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	apiKey  string
	logFile string
	extra   []string
}

// startFitplan launches the fitplan binary on a fresh data directory and
// waits for it to become healthy. Configuration is passed via environment only.
func startFitplan(t *testing.T, extraEnv ...string) *fitplanServer {
	t.Helper()
	return startFitplanIn(t, t.TempDir(), extraEnv...)
}

func startFitplanIn(t *testing.T, dataDir string, extraEnv ...string) *fitplanServer {
	t.Helper()
	requireFitplan(t)

	apiKey := "e2e-test-api-key"
	port := freePort(t)
	address := fmt.Sprintf("127.0.0.1:%d", port)
	logFile := filepath.Join(dataDir, fmt.Sprintf("fitplan-%d.log", port))

	cmd := exec.Command(fitplanBin)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("FITPLAN_PORT=%d", port),
		"FITPLAN_DB_DRIVER=sqlite",
		"FITPLAN_DB_PATH="+filepath.Join(dataDir, "fitplan.db"),
		"FITPLAN_API_KEY="+apiKey,
		"FITPLAN_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"FITPLAN_ENV_FILE="+filepath.Join(dataDir, "nonexistent.env"),
		"FITPLAN_DEV_MODE=true", // no provider key needed
		"FITPLAN_LOG_LEVEL=debug",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start fitplan: %v", err)
	}

	s := &fitplanServer{
		cmd:     cmd,
		dataDir: dataDir,
		address: address,
		apiKey:  apiKey,
		logFile: logFile,
		extra:   extraEnv,
	}

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		logs, _ := os.ReadFile(logFile)
		t.Fatalf("fitplan not healthy: %v\n%s", err, logs)
	}

	return s
}

func (s *fitplanServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

// restartOnSameData stops the server and starts a new one on the same database.
func (s *fitplanServer) restartOnSameData(t *testing.T) *fitplanServer {
	t.Helper()
	s.stop()
	return startFitplanIn(t, s.dataDir, s.extra...)
}

func (s *fitplanServer) baseURL() string {
	return fmt.Sprintf("http://%s/api/v1", s.address)
}

func (s *fitplanServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("fitplan not healthy after %s", timeout)
}

// do sends an authenticated request and decodes a JSON response into out when non-nil.
func (s *fitplanServer) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.baseURL()+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

type sessionBody struct {
	ID   string `json:"id"`
	Step struct {
		Name     string  `json:"name"`
		Index    int     `json:"index"`
		Progress float64 `json:"progress"`
	} `json:"step"`
	Answers       map[string]any `json:"answers"`
	Done          bool           `json:"done"`
	MissingFields []string       `json:"missingFields"`
}

func (s *fitplanServer) createSession(t *testing.T) sessionBody {
	t.Helper()
	var sess sessionBody
	if code := s.do(t, http.MethodPost, "/sessions", "", &sess); code != http.StatusCreated {
		t.Fatalf("create session: status %d", code)
	}
	return sess
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// fullAnswers answers every question in the flow.
const fullAnswers = `{
	"goal": "lose_fat",
	"weeklyFatLossRate": 0.75,
	"sex": "male",
	"age": 30,
	"heightCm": 180,
	"weightKg": 80,
	"activityLevel": "often_on_feet",
	"experience": "intermediate",
	"daysPerWeek": 4,
	"trainingSplit": "upper_lower",
	"equipment": ["dumbbells", "barbell"],
	"hasInjuries": false,
	"workoutTime": "morning",
	"sleepHours": 7.5,
	"dietaryRestrictions": [],
	"avoidFoods": ["olives"],
	"coachStyle": "balanced"
}`
