// Command tf is a CLI client for the TaskFlow task-management service.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shezi1344/taskflow-cli/internal/api"
	"github.com/shezi1344/taskflow-cli/internal/chat"
	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/model"
	"github.com/shezi1344/taskflow-cli/internal/session"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

const defaultAPIURL = "https://shezi1344-todo-chatbot-backend.hf.space"

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `tf CLI
Usage:
  tf [-api URL] [-v] <cmd> [args]

Commands:
  version
  signup     -email <email> -p <password> -confirm <password> -name <name>
  signin     -email <email> -p <password>              (saves token)
  signout
  whoami
  health
  task       list|add|edit|done|rm ...
  chat                                             (interactive)

Environment:
  TASKFLOW_API_URL     backend base URL (or .env)
  TASKFLOW_CONFIG_DIR  credential storage directory
`)
	os.Exit(2)
}

func apiURLDefault() string {
	if v := os.Getenv("TASKFLOW_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

func buildLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, _ := cfg.Build()
	return logger
}

// main dispatches subcommands over a shared client/session pair.
func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", apiURLDefault(), "backend base URL")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	logger := buildLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	store := token.NewFileStore(token.DefaultDir())
	client := api.New(*apiURL, store, api.WithLogger(logger))
	client.OnNavigate(func(in api.Intent) {
		if in.Target == api.TargetSignIn {
			fmt.Fprintln(os.Stderr, "session expired; run `tf signin`")
		}
	})
	sess := session.NewManager(client, store, logger)
	sess.Initialize()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("tf %s (%s)\n", version, buildDate)

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		email := fs.String("email", "", "email")
		pass := fs.String("p", "", "password")
		confirm := fs.String("confirm", "", "password confirmation")
		name := fs.String("name", "", "display name")
		_ = fs.Parse(flag.Args()[1:])

		if err := validateSignUp(*email, *pass, *confirm, *name); err != nil {
			fail(err)
		}
		if err := sess.SignUp(ctx, *email, *pass, *name); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "signin":
		fs := flag.NewFlagSet("signin", flag.ExitOnError)
		email := fs.String("email", "", "email")
		pass := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])

		if err := validateSignIn(*email, *pass); err != nil {
			fail(err)
		}
		if err := sess.SignIn(ctx, *email, *pass); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "signout":
		sess.SignOut()
		fmt.Println("ok")

	case "whoami":
		snap := sess.Current()
		if snap.Status != session.StatusAuthenticated {
			fmt.Fprintln(os.Stderr, "not signed in")
			os.Exit(1)
		}
		printJSON(snap.User)

	case "health":
		if err := client.Health(ctx); err != nil {
			fail(err)
		}
		fmt.Printf("ok %s\n", client.BaseURL())

	case "task":
		if flag.NArg() < 2 {
			usage()
		}
		runTask(ctx, client, store, flag.Arg(1), flag.Args()[2:])

	case "chat":
		runChat(client, store, logger)

	default:
		usage()
	}
}

// runChat is a line-oriented REPL over one conversation.
func runChat(client *api.Client, store token.Store, logger *zap.Logger) {
	ctrl := chat.NewController(client, store, logger)

	for _, m := range ctrl.Messages() {
		printMessage(m.Role, m.Content)
	}

	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		line := sc.Text()
		if line == "/quit" || line == "/exit" {
			return
		}
		if strings.TrimSpace(line) == "" {
			fmt.Print("> ")
			continue
		}
		if line == "/history" {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			msgs, err := ctrl.History(ctx)
			cancel()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			for _, m := range msgs {
				printMessage(m.Role, m.Content)
			}
			fmt.Print("> ")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		appended := ctrl.Send(ctx, line)
		cancel()
		if appended == nil {
			fmt.Fprintln(os.Stderr, "(nothing sent; sign in first?)")
		}
		for _, m := range appended {
			if m.Role == model.RoleAssistant {
				printMessage(m.Role, m.Content)
			}
		}
		fmt.Print("> ")
	}
}

func printMessage(role model.Role, content string) {
	fmt.Printf("[%s] %s\n", role, content)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	switch errs.KindOf(err) {
	case errs.KindUnauthenticated, errs.KindSessionExpired, errs.KindUnauthorized:
		os.Exit(3)
	case errs.KindValidationFailed:
		os.Exit(2)
	default:
		os.Exit(1)
	}
}
