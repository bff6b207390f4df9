package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	mw "github.com/kiranshivaraju/logtrail/internal/api/middleware"
	"github.com/spf13/cobra"
)

const tokenExpiry = time.Hour

func newTokenCmd() *cobra.Command {
	var secret string
	var expiry time.Duration
	cmd := &cobra.Command{
		Use:   "token <userId>",
		Short: "Sign a session token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := mw.NewSessionToken([]byte(secret), args[0], expiry)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SESSION_SECRET"), "session signing secret")
	cmd.Flags().DurationVar(&expiry, "expiry", tokenExpiry, "token lifetime")
	return cmd
}

func newTailCmd() *cobra.Command {
	var server, user, secret string
	cmd := &cobra.Command{
		Use:   "tail <applicationId>",
		Short: "Stream an application's new log records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid application id %q", args[0])
			}
			if user == "" {
				return errors.New("--user is required")
			}
			token, err := mw.NewSessionToken([]byte(secret), user, tokenExpiry)
			if err != nil {
				return err
			}
			target, err := trailURL(server, id)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return streamTrail(ctx, target, token, func(line []byte) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(line))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "logtrail server base URL")
	cmd.Flags().StringVar(&user, "user", "", "user id to authenticate as")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SESSION_SECRET"), "session signing secret")
	return cmd
}

// trailURL maps an http(s) base URL onto the websocket trail endpoint.
func trailURL(base string, applicationID uuid.UUID) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/applications/" + applicationID.String() + "/trail"
	return u.String(), nil
}

// streamTrail hands every received message to emit until the server closes
// the connection or ctx ends.
func streamTrail(ctx context.Context, target, token string, emit func([]byte) error) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect trail: server answered %s", resp.Status)
		}
		return fmt.Errorf("connect trail: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read trail: %w", err)
		}
		if err := emit(msg); err != nil {
			return err
		}
	}
}
