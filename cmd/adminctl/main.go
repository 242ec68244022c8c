package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"phonehub/internal/auth"
	"phonehub/pkg/config"
	"phonehub/pkg/database"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("adminctl", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Minute}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "user":
		handleUser(ctx, sub, args[2:])
	case "import":
		handleImport(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "watch":
		handleWatch(*baseURL)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "admin username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}

		payload := map[string]string{"username": *username, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "logout":
		token := mustToken(tokenPath)
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/auth/logout", token, nil, nil); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("clear token: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: adminctl auth <login|logout>")
	}
}

// handleUser provisions admin accounts straight into the local database.
// It exists because the API has no register endpoint.
func handleUser(ctx context.Context, sub string, args []string) {
	switch sub {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		username := fs.String("username", "", "admin username")
		password := fs.String("password", "", "password (8-72 chars)")
		_ = fs.Parse(args)

		if *username == "" || len(*password) < 8 || len(*password) > 72 {
			log.Fatal("username and a password of 8-72 chars are required")
		}

		// resolve the path the way the server does, so the account lands
		// in the database the server actually reads
		db := database.MustOpen(database.Config{Path: config.DatabasePath()})
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash failed: %v", err)
		}
		u := auth.User{
			ID:           uuid.NewString(),
			Username:     strings.TrimSpace(*username),
			PasswordHash: string(hash),
		}
		if err := auth.NewRepo(db).CreateUser(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}
		fmt.Printf("admin %q created\n", u.Username)
	default:
		log.Fatal("usage: adminctl user create")
	}
}

func handleImport(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)

	switch sub {
	case "status":
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/api/admin/import/status", token, nil, &out); err != nil {
			log.Fatalf("status failed: %v", err)
		}
		printJSON(out)
	case "brands", "popular":
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/api/admin/import/"+sub, token, nil, &out); err != nil {
			log.Fatalf("import %s failed: %v", sub, err)
		}
		printJSON(out)
	case "latest":
		fs := flag.NewFlagSet("import latest", flag.ExitOnError)
		limit := fs.Int("limit", 0, "result cap; 0 uses server default")
		_ = fs.Parse(args)

		endpoint := fmt.Sprintf("%s/api/admin/import/latest?limit=%d", baseURL, *limit)
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodPost, endpoint, token, nil, &out); err != nil {
			log.Fatalf("import latest failed: %v", err)
		}
		printJSON(out)
	case "search":
		fs := flag.NewFlagSet("import search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		limit := fs.Int("limit", 0, "result cap; 0 uses server default")
		_ = fs.Parse(args)

		if *query == "" {
			log.Fatal("-q is required")
		}
		endpoint := fmt.Sprintf("%s/api/admin/import/search?q=%s&limit=%d",
			baseURL, url.QueryEscape(*query), *limit)
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodPost, endpoint, token, nil, &out); err != nil {
			log.Fatalf("import search failed: %v", err)
		}
		printJSON(out)
	default:
		log.Fatal("usage: adminctl import <status|brands|popular|latest|search>")
	}
}

// handleWatch streams run lifecycle and reconciliation events until
// interrupted.
func handleWatch(baseURL string) {
	wsURL, err := websocketURL(baseURL, "/ws")
	if err != nil {
		log.Fatalf("bad api url: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	fmt.Println("watching import events (ctrl-c to stop)")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fmt.Println(strings.TrimSpace(string(msg)))
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.phonehub-token.json"
	}
	return filepath.Join(home, ".phonehub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("adminctl <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  user create")
	fmt.Println("  import status|brands|popular|latest|search")
	fmt.Println("  watch")
}
