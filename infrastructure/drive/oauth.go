package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const callbackAddr = "localhost:8085"

// OAuthConfig holds the configuration for OAuth 2.0 authentication
type OAuthConfig struct {
	CredentialsFile string    // OAuth client credentials JSON
	TokenFile       string    // cached user token
	Output          io.Writer // where sign-in instructions are printed
}

// NewClientWithOAuth creates a Drive client that acts as the signed-in user.
// A cached token is reused and refreshed; without one the user is asked to
// sign in through the browser.
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newOAuthDriveService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

func newOAuthDriveService(ctx context.Context, cfg OAuthConfig) (*GoogleDriveService, error) {
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(raw, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	store := tokenStore{path: cfg.TokenFile}

	src, err := userTokenSource(ctx, oauthCfg, store, out)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, src)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &GoogleDriveService{service: srv}, nil
}

// userTokenSource starts from the cached token when it still refreshes and
// falls back to browser consent otherwise
func userTokenSource(ctx context.Context, cfg *oauth2.Config, store tokenStore, out io.Writer) (oauth2.TokenSource, error) {
	if cached, err := store.Load(); err == nil {
		src := newSavingTokenSource(cfg.TokenSource(ctx, cached), store, cached, out)
		if _, err := src.Token(); err == nil {
			return src, nil
		}
		fmt.Fprintln(out, "Saved Google sign-in has expired, signing in again.")
	}

	token, err := authorize(ctx, cfg, out)
	if err != nil {
		return nil, err
	}
	if err := store.Save(token); err != nil {
		fmt.Fprintf(out, "Warning: couldn't save token: %v\n", err)
	}
	return newSavingTokenSource(cfg.TokenSource(ctx, token), store, token, out), nil
}

// tokenStore keeps one OAuth token as JSON in a file only the owner can read
type tokenStore struct {
	path string
}

func (s tokenStore) Load() (*oauth2.Token, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, fmt.Errorf("corrupt token file %s: %w", s.path, err)
	}
	return token, nil
}

func (s tokenStore) Save(token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// savingTokenSource writes every newly issued access token back to the store
type savingTokenSource struct {
	mu         sync.Mutex
	base       oauth2.TokenSource
	store      tokenStore
	lastAccess string
	out        io.Writer
}

func newSavingTokenSource(base oauth2.TokenSource, store tokenStore, current *oauth2.Token, out io.Writer) *savingTokenSource {
	return &savingTokenSource{base: base, store: store, lastAccess: current.AccessToken, out: out}
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.lastAccess {
		s.lastAccess = token.AccessToken
		if err := s.store.Save(token); err != nil {
			fmt.Fprintf(s.out, "Warning: couldn't save refreshed token: %v\n", err)
		}
	}
	return token, nil
}

// authorize runs the installed-app consent flow against a local callback
func authorize(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("cannot listen for the sign-in callback on %s: %w", callbackAddr, err)
	}

	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	server := &http.Server{Handler: callbackHandler(state, codes, errs)}
	go func() {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer server.Shutdown(context.WithoutCancel(ctx))

	cfg.RedirectURL = "http://" + callbackAddr + "/callback"
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Fprintf(out, "\nSign in to Google Drive in your browser. If it does not open, visit:\n\n%s\n\n", authURL)
	if argv := browserCommand(runtime.GOOS, authURL); argv != nil {
		_ = exec.Command(argv[0], argv[1:]...).Start()
	}

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}
	fmt.Fprintln(out, "Signed in to Google Drive.")
	return token, nil
}

// callbackHandler accepts the redirect carrying the authorization code.
// Requests with a foreign state are rejected without ending the flow.
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Unexpected sign-in request.", http.StatusBadRequest)
			return
		}
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "Sign-in was not completed.", http.StatusForbidden)
			select {
			case errs <- fmt.Errorf("sign-in refused: %s", reason):
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No authorization code received.", http.StatusBadRequest)
			return
		}
		select {
		case codes <- code:
		default:
		}
		fmt.Fprint(w, "Signed in. You can close this window and return to audio-trimmer.")
	})
	return mux
}

// browserCommand returns the command that opens url on goos, or nil
func browserCommand(goos, url string) []string {
	switch goos {
	case "darwin":
		return []string{"open", url}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}
	case "linux", "freebsd", "openbsd":
		return []string{"xdg-open", url}
	default:
		return nil
	}
}
