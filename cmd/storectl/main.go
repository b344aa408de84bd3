package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/shopworks/storefront/internal/storefront/app"
	"github.com/shopworks/storefront/internal/storefront/session"
)

const usage = `Usage: storectl <command> [arguments]

Commands:
  login            authenticate against the commerce backend and store the session
  whoami           print the identity attached to the current session
  roles            print the authorities granted by the current token
  get <path>       perform an authenticated GET against the commerce backend
  logout           end the session locally and on the backend
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	ctx := context.Background()

	if err := run(ctx, application, flag.Args()); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Fprintln(os.Stderr, "not logged in, run `storectl login` first")
			os.Exit(1)
		}
		log.Fatalf("storectl: %v", err)
	}
}

func run(ctx context.Context, application *app.Application, args []string) error {
	switch args[0] {
	case "login":
		return cmdLogin(ctx, application)
	case "whoami":
		return cmdWhoami(ctx, application)
	case "roles":
		return cmdRoles(ctx, application)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("get requires a request path")
		}
		return cmdGet(ctx, application, args[1])
	case "logout":
		return application.Sessions.Logout(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdLogin(ctx context.Context, application *app.Application) error {
	creds, err := promptCredentials()
	if err != nil {
		return err
	}

	sess, err := application.Sessions.Login(ctx, creds)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s\n", sess.Profile.Username)
	return nil
}

func cmdWhoami(ctx context.Context, application *app.Application) error {
	sess, err := application.Sessions.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("user:     %s (%s)\n", sess.Profile.Username, sess.Profile.UserID)
	fmt.Printf("name:     %s\n", sess.Profile.DisplayName)
	fmt.Printf("email:    %s\n", sess.Profile.Email)
	if sess.Profile.ShopID != "" {
		fmt.Printf("shop:     %s\n", sess.Profile.ShopID)
	}
	if sess.Claims != nil && sess.Claims.ExpiresAt != nil {
		fmt.Printf("expires:  %s\n", sess.Claims.ExpiresAt.Time)
	}
	return nil
}

func cmdRoles(ctx context.Context, application *app.Application) error {
	roles, err := application.Sessions.Roles(ctx)
	if err != nil {
		return err
	}

	if len(roles) == 0 {
		fmt.Println("no authorities granted")
		return nil
	}
	for _, role := range roles {
		fmt.Println(role)
	}
	return nil
}

func cmdGet(ctx context.Context, application *app.Application, path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	raw, err := application.Commerce.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		// Not JSON, print as-is
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func promptCredentials() (session.Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return session.Credentials{}, fmt.Errorf("failed to read email: %w", err)
	}

	fmt.Print("password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return session.Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	return session.Credentials{
		Email:    strings.TrimSpace(email),
		Password: string(password),
	}, nil
}
