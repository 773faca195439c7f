// Command userctl manages users from the terminal through the HTTP API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"userdesk/m/internal/client"
	"userdesk/m/internal/ui"
)

type settings struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:4000"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
}

// terminal prints list view notifications.
type terminal struct {
	out, errOut io.Writer
}

func (t terminal) Success(msg string) { fmt.Fprintln(t.out, msg) }
func (t terminal) Error(msg string)   { fmt.Fprintln(t.errOut, msg) }

func main() {
	_ = godotenv.Load()

	var s settings
	if err := env.Parse(&s); err != nil {
		fatalf("parse environment: %v", err)
	}

	flag.StringVar(&s.BaseURL, "api", s.BaseURL, "API base URL")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(s.BaseURL, client.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	view := ui.NewListView(api, terminal{out: os.Stdout, errOut: os.Stderr})

	var err error
	switch args[0] {
	case "list":
		err = list(ctx, view, api)
	case "add":
		err = add(ctx, view, args[1:])
	case "edit":
		err = edit(ctx, view, args[1:])
	case "delete":
		err = remove(ctx, view, args[1:])
	case "dashboard":
		err = dashboard(ctx, api)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		var fields ui.FieldErrors
		if errors.As(err, &fields) {
			for field, msg := range fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		fatalf("%s: %v", args[0], err)
	}
}

func list(ctx context.Context, view *ui.ListView, api *client.Client) error {
	if err := view.Load(ctx); err != nil {
		return err
	}
	return ui.RenderUsers(os.Stdout, view.Users(), api.AvatarURL)
}

func add(ctx context.Context, view *ui.ListView, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "user name (at least 3 characters)")
	email := fs.String("email", "", "email address")
	avatar := fs.String("avatar", "", "path to an image file")
	_ = fs.Parse(args)

	view.OpenAdd()
	view.SetName(*name)
	view.SetEmail(*email)
	if *avatar != "" {
		a, closeFn, err := openAttachment(*avatar)
		if err != nil {
			return err
		}
		defer closeFn()
		view.AttachAvatar(a)
	}
	return save(ctx, view)
}

func edit(ctx context.Context, view *ui.ListView, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "user id")
	name := fs.String("name", "", "new name (unchanged when empty)")
	email := fs.String("email", "", "new email (unchanged when empty)")
	avatar := fs.String("avatar", "", "path to a replacement image")
	_ = fs.Parse(args)

	if err := view.Load(ctx); err != nil {
		return err
	}
	if err := view.OpenEdit(*id); err != nil {
		return fmt.Errorf("user %d: %w", *id, err)
	}
	if *name != "" {
		view.SetName(*name)
	}
	if *email != "" {
		view.SetEmail(*email)
	}
	if *avatar != "" {
		a, closeFn, err := openAttachment(*avatar)
		if err != nil {
			return err
		}
		defer closeFn()
		view.AttachAvatar(a)
	}
	return save(ctx, view)
}

// save submits the open form; a conflict is reported as the email error.
func save(ctx context.Context, view *ui.ListView) error {
	err := view.Save(ctx)
	var fields ui.FieldErrors
	if err == nil || errors.As(err, &fields) {
		return err
	}
	if msg, ok := view.Errors()["email"]; ok && msg != "" {
		return ui.FieldErrors{"email": msg}
	}
	return err
}

func remove(ctx context.Context, view *ui.ListView, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "user id")
	yes := fs.Bool("y", false, "skip confirmation")
	_ = fs.Parse(args)

	view.OpenDelete(*id)
	if !*yes && !confirm(fmt.Sprintf("Delete user %d? Type 'yes' to confirm: ", *id)) {
		view.Close()
		fmt.Println("aborted")
		return nil
	}
	return view.ConfirmDelete(ctx)
}

func dashboard(ctx context.Context, api *client.Client) error {
	users, err := api.ListUsers(ctx)
	if err != nil {
		return err
	}
	growth, err := api.GrowthStats(ctx)
	if err != nil {
		return err
	}
	return ui.RenderDashboard(os.Stdout, ui.Summarize(users, growth, time.Now()))
}

// openAttachment opens path and sniffs its content type the way a browser
// would label a picked file.
func openAttachment(path string) (*ui.Attachment, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, err
	}

	a := &ui.Attachment{
		Name:        info.Name(),
		ContentType: http.DetectContentType(head[:n]),
		Size:        info.Size(),
		Reader:      f,
	}
	return a, func() { f.Close() }, nil
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: userctl [-api URL] <command> [flags]

Commands:
  list                                   Print all users
  add -name N -email E [-avatar FILE]    Create a user
  edit -id ID [-name N] [-email E] [-avatar FILE]
                                         Update a user; omitted fields are kept
  delete -id ID [-y]                     Delete a user
  dashboard                              Show totals, growth chart and recent activity

Environment:
  API_BASE_URL   API origin (default: http://localhost:4000)
  API_TIMEOUT    Per-request timeout (default: 30s)`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
