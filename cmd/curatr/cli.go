package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hpungsan/curatr/internal/countdown"
	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/ops"
	"github.com/hpungsan/curatr/internal/quiz"
	"github.com/hpungsan/curatr/internal/web"
)

// DefaultPort is the web UI port used by serve.
const DefaultPort = 8420

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "curatr",
		Usage:   "Gift recommendations and a Memory Box of saved gifts",
		Version: Version,
		Commands: []*cli.Command{
			recipientsCmd(env),
			catalogCmd(),
			recommendCmd(env),
			quizCmd(env),
			saveCmd(env),
			removeCmd(env),
			refreshCmd(env),
			boxCmd(env),
			upcomingCmd(env),
			buyCmd(env),
			watchCmd(env),
			exportCmd(env),
			importCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// recipientsCmd groups the recipient registry subcommands.
func recipientsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "recipients",
		Usage: "Manage gift recipients",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recipients with their gift counts",
				Action: func(c *cli.Context) error {
					output, err := ops.ListRecipients(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "add",
				Usage:     "Add a recipient",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					output, err := ops.CreateRecipient(c.Context, env, ops.CreateRecipientInput{
						Name: strings.Join(c.Args().Slice(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a recipient",
				ArgsUsage: "<id> <name>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: recipients rename <id> <name>"))
					}
					output, err := ops.RenameRecipient(c.Context, env, ops.RenameRecipientInput{
						ID:   c.Args().First(),
						Name: strings.Join(c.Args().Tail(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a recipient and all gifts saved for them",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					output, err := ops.DeleteRecipient(c.Context, env, ops.DeleteRecipientInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "count",
				Usage:     "Count gifts saved for a recipient",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					output, err := ops.GiftCount(c.Context, env, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
		},
	}
}

// catalogCmd prints the catalog, quiz questions and occasion types.
func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Show the gift catalog and quiz questions",
		Action: func(c *cli.Context) error {
			return outputJSON(c, ops.Catalog())
		},
	}
}

// recommendCmd creates the recommend command.
func recommendCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Start a recommendation session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "recipient", Aliases: []string{"r"}, Usage: "Recipient id (flags items already saved)"},
			&cli.StringSliceFlag{Name: "answer", Aliases: []string{"a"}, Usage: "Quiz answer, once per question in order"},
		},
		Action: func(c *cli.Context) error {
			input := ops.RecommendInput{RecipientID: c.String("recipient")}
			if answers := c.StringSlice("answer"); len(answers) > 0 {
				input.Answers = make(map[int]string, len(answers))
				for i, a := range answers {
					input.Answers[i] = a
				}
			}
			output, err := ops.Recommend(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// quizCmd runs the interactive quiz in a terminal.
func quizCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "quiz",
		Usage: "Answer the gift quiz interactively, then show recommendations",
		Action: func(c *cli.Context) error {
			f, ok := c.App.Reader.(*os.File)
			if !ok || !term.IsTerminal(int(f.Fd())) {
				return outputError(errors.NewInvalidRequest("quiz needs an interactive terminal; use 'recommend --answer' instead"))
			}
			output, err := runQuiz(c.Context, env, bufio.NewReader(c.App.Reader), c.App.ErrWriter, quiz.AfterFunc)
			if err != nil {
				return outputError(err)
			}
			if output == nil {
				return nil
			}
			return outputJSON(c, output)
		},
	}
}

// runQuiz drives a quiz.Flow from line input. "b" goes back one step. A nil
// output with nil error means the user backed out of the quiz. After each
// answer it blocks until schedule has run the transition.
func runQuiz(ctx context.Context, env *ops.Env, in *bufio.Reader, out io.Writer, schedule quiz.Scheduler) (*ops.RecommendOutput, error) {
	settled := make(chan struct{}, 1)
	flow := quiz.NewFlow(gift.Questions(), quiz.WithScheduler(func(d time.Duration, fn func()) quiz.Timer {
		return schedule(d, func() {
			fn()
			settled <- struct{}{}
		})
	}))

	for {
		switch flow.Stage() {
		case quiz.StageExited:
			fmt.Fprintln(out, "Quiz cancelled.")
			return nil, nil

		case quiz.StageComplete:
			res, _ := flow.Result()
			return ops.Recommend(ctx, env, ops.RecommendInput{
				RecipientID: res.Recipient.ID,
				Answers:     res.Answers,
			})

		case quiz.StageRecipient:
			list, err := ops.ListRecipients(ctx, env)
			if err != nil {
				return nil, err
			}
			fmt.Fprintln(out, "Who is this gift for?")
			for i, r := range list.Recipients {
				fmt.Fprintf(out, "  %d) %s\n", i+1, r.Name)
			}
			fmt.Fprint(out, "Number, a new name, or b to quit: ")
			line, err := readLine(in)
			if err != nil {
				return nil, err
			}
			if line == "b" {
				flow.Back()
				continue
			}
			var recipient gift.Recipient
			if n, err := strconv.Atoi(line); err == nil {
				if n < 1 || n > len(list.Recipients) {
					fmt.Fprintln(out, "No such recipient.")
					continue
				}
				recipient = list.Recipients[n-1].Recipient
			} else {
				created, err := ops.CreateRecipient(ctx, env, ops.CreateRecipientInput{Name: line})
				if err != nil {
					fmt.Fprintln(out, errors.As(err).Message)
					continue
				}
				recipient = *created
			}
			if err := flow.SelectRecipient(recipient); err != nil {
				return nil, err
			}

		case quiz.StageQuestion:
			q, _ := flow.Question()
			current := flow.Current()
			fmt.Fprintf(out, "\n(%d/%d) %s\n", current+1, len(gift.Questions()), q.Text)
			prev := flow.Answers()[current]
			for i, opt := range q.Options {
				mark := " "
				if opt == prev {
					mark = "*"
				}
				fmt.Fprintf(out, " %s%d) %s\n", mark, i+1, opt)
			}
			fmt.Fprint(out, "Choice, or b to go back: ")
			line, err := readLine(in)
			if err != nil {
				return nil, err
			}
			if line == "b" {
				flow.Back()
				continue
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(q.Options) {
				fmt.Fprintln(out, "Pick one of the listed numbers.")
				continue
			}
			if err := flow.Answer(current, q.Options[n-1]); err != nil {
				fmt.Fprintln(out, errors.As(err).Message)
				continue
			}
			select {
			case <-settled:
			case <-ctx.Done():
				return nil, errors.NewCancelled("quiz")
			}
		}
	}
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errors.NewCancelled("quiz")
		}
		return "", errors.NewInternal(err)
	}
	return strings.TrimSpace(line), nil
}

func occasionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "occasion", Aliases: []string{"o"}, Value: string(gift.OccasionJustBecause), Usage: "Occasion type: birthday|anniversary|holiday|graduation|thank_you|just_because|custom"},
		&cli.StringFlag{Name: "label", Usage: "Label for a custom occasion"},
		&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Occasion date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "notes", Usage: "Notes"},
	}
}

// saveCmd creates the save command.
func saveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a catalog item to the Memory Box",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "item", Aliases: []string{"i"}, Required: true, Usage: "Catalog item id"},
			&cli.StringFlag{Name: "recipient", Aliases: []string{"r"}, Required: true, Usage: "Recipient id"},
			&cli.Int64Flag{Name: "expires-at", Usage: "Expiry from a recommendation session (unix ms)"},
		}, occasionFlags()...),
		Action: func(c *cli.Context) error {
			output, err := ops.SaveItem(c.Context, env, ops.SaveItemInput{
				ItemID:      c.Int("item"),
				RecipientID: c.String("recipient"),
				ExpiresAt:   c.Int64("expires-at"),
				Occasion: ops.OccasionInput{
					Type:        c.String("occasion"),
					CustomLabel: c.String("label"),
					Date:        c.String("date"),
					Notes:       c.String("notes"),
				},
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "item", Aliases: []string{"i"}, Required: true, Usage: "Catalog item id"},
		&cli.StringFlag{Name: "recipient", Aliases: []string{"r"}, Usage: "Recipient id (default: all recipients)"},
	}
}

// removeCmd creates the remove command.
func removeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove an item from the Memory Box",
		Flags: itemFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.RemoveItem(c.Context, env, ops.RemoveItemInput{
				ItemID:      c.Int("item"),
				RecipientID: c.String("recipient"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// refreshCmd creates the refresh command.
func refreshCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Re-quote the price of a saved item",
		Flags: itemFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.RefreshPrice(c.Context, env, ops.RefreshPriceInput{
				ItemID:      c.Int("item"),
				RecipientID: c.String("recipient"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func recipientFilterFlag() cli.Flag {
	return &cli.StringFlag{Name: "recipient", Aliases: []string{"r"}, Value: ops.AllRecipients, Usage: "Recipient id or all"}
}

// boxCmd lists the Memory Box.
func boxCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "box",
		Usage: "List Memory Box entries",
		Flags: []cli.Flag{
			recipientFilterFlag(),
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: string(gift.StatusAll), Usage: "all|upcoming|expired"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListSaved(c.Context, env, ops.ListSavedInput{
				RecipientID: c.String("recipient"),
				Status:      c.String("status"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// upcomingCmd creates the upcoming command.
func upcomingCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "Show the nearest upcoming occasions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries (default from config)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.UpcomingOccasions(c.Context, env, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// buyCmd creates the buy command.
func buyCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "buy",
		Usage:     "Print the purchase link for an item",
		ArgsUsage: "<item-id>",
		Action: func(c *cli.Context) error {
			id, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest("item id must be an integer"))
			}
			output, err := ops.Buy(c.Context, env, ops.BuyInput{ItemID: id})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// watchCmd prints live countdowns for saved items until interrupted.
func watchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Show live price countdowns for the Memory Box",
		Flags: []cli.Flag{
			recipientFilterFlag(),
			&cli.IntFlag{Name: "ticks", Usage: "Stop after this many updates (0 runs until interrupted)"},
		},
		Action: func(c *cli.Context) error {
			list, err := ops.ListSaved(c.Context, env, ops.ListSavedInput{RecipientID: c.String("recipient")})
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := countdown.NewHub()
			defer hub.Close()
			return watch(ctx, hub, list.Items, c.App.Writer, c.Int("ticks"))
		},
	}
}

// watch renders one block of countdown lines per tick. On a terminal each
// block replaces the previous one.
func watch(ctx context.Context, hub *countdown.Hub, items []ops.SavedView, w io.Writer, ticks int) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "Memory Box is empty.")
		return nil
	}

	redraw := false
	if f, ok := w.(*os.File); ok {
		redraw = term.IsTerminal(int(f.Fd()))
	}

	done := make(chan struct{})
	n := 0
	unsubscribe := hub.Subscribe(func(now time.Time) {
		if n >= ticks && ticks > 0 {
			return
		}
		var b strings.Builder
		if redraw {
			b.WriteString("\033[H\033[2J")
		}
		for _, it := range items {
			fmt.Fprintf(&b, "%-48s %-12s %s\n", it.Title, it.RecipientName, gift.Countdown(it.ExpiresAt, now))
		}
		fmt.Fprint(w, b.String())
		n++
		if ticks > 0 && n == ticks {
			close(done)
		}
	})
	defer unsubscribe()

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

// exportCmd creates the export command.
func exportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export recipients and the Memory Box to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.curatr/exports/memorybox-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a JSON backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeMerge), Usage: "Import mode: merge|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// serveCmd starts the web UI.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: DefaultPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(env, web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    c.Int("port"),
				Metrics: env.Metrics,
				Logger:  env.Logger,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(c.Context, srv, env.Logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v to the app's stdout as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	cErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
}
