// Package auth acquires and refreshes the Google OAuth credential used by
// the calendar gateway. Credential acquisition is a thin collaborator: the
// heavy lifting is delegated to golang.org/x/oauth2.
package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Scope is the only Google API scope this tool needs.
const Scope = "https://www.googleapis.com/auth/calendar"

// NewOAuthConfig builds the oauth2 config for an installed application.
func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "http://127.0.0.1:8080", // replaced by the callback server's actual address
		Scopes:       []string{Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// autoSaveTokenSource wraps an oauth2.TokenSource and persists refreshed
// tokens so the next run skips the interactive flow.
type autoSaveTokenSource struct {
	source    oauth2.TokenSource
	store     TokenStore
	lastToken *oauth2.Token
}

func (a *autoSaveTokenSource) Token() (*oauth2.Token, error) {
	token, err := a.source.Token()
	if err != nil {
		return nil, err
	}
	if a.lastToken == nil || a.lastToken.AccessToken != token.AccessToken {
		if err := a.store.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		a.lastToken = token
	}
	return token, nil
}

// GetAuthenticatedClient returns an HTTP client carrying valid credentials.
// On first use it walks the user through the browser consent flow via a
// local callback server; afterwards the stored token is reused and refreshed
// silently.
func GetAuthenticatedClient(ctx context.Context, oauthConfig *oauth2.Config, store TokenStore) (*http.Client, error) {
	token, err := store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil {
		token, err = interactiveFlow(ctx, oauthConfig)
		if err != nil {
			return nil, err
		}
		if err := store.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	source := &autoSaveTokenSource{
		source:    oauth2.ReuseTokenSource(token, oauthConfig.TokenSource(ctx, token)),
		store:     store,
		lastToken: token,
	}
	return oauth2.NewClient(ctx, source), nil
}

func interactiveFlow(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	redirectURL, codeChan, errChan, err := startCallbackServer()
	if err != nil {
		return nil, err
	}
	oauthConfig.RedirectURL = redirectURL

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("Please visit the following URL to authorize the application:")
	fmt.Println(authURL)
	fmt.Println("\nWaiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, fmt.Errorf("failed to receive authorization code: %w", err)
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timeout: no response within 5 minutes")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	fmt.Println("Authorization successful.")
	return token, nil
}

// startCallbackServer listens for the OAuth redirect on 127.0.0.1:8080,
// falling back to a random port when 8080 is taken.
func startCallbackServer() (string, <-chan string, <-chan error, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:8080")
	if err != nil {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to start callback server: %w", err)
		}
	}
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if code := r.URL.Query().Get("code"); code != "" {
			fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
			codeChan <- code
		} else if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>Error: %s</p></body></html>", errMsg)
			errChan <- fmt.Errorf("authorization error: %s", errMsg)
		} else {
			fmt.Fprint(w, "<html><body><h1>No authorization code received</h1></body></html>")
			errChan <- fmt.Errorf("no authorization code received")
		}
		go func() {
			time.Sleep(time.Second)
			server.Shutdown(context.Background())
		}()
	})
	server.Handler = mux

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	return redirectURL, codeChan, errChan, nil
}
