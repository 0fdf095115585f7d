// cmd/signup/main.go
//
// Sendero – command-line form client.
//
// Context
//   Submits the waitlist or contact form against a running site through
//   the same submission controller a UI would use, so field errors and
//   general errors print exactly as a visitor would see them.
//
//       signup waitlist -email a@b.co -duration 3-5-days -interests hiking,food
//       signup contact  -name Ana -email a@b.co -message "Hello there" -locale es
//
//   Exit status is 0 on success, 1 on a rejected submission, and 2 on
//   usage errors.
//
//------------------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/senderotrails/site/internal/i18n"
	"github.com/senderotrails/site/internal/submission"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: signup waitlist|contact [flags]")
		return 2
	}

	fs := flag.NewFlagSet("signup "+args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	base := fs.String("base", envOr("SENDERO_BASE_URL", "http://localhost:8080"), "site base URL")
	locale := fs.String("locale", i18n.DefaultLocale, "message locale")

	var f submission.Form
	switch args[0] {
	case "waitlist":
		w := &submission.WaitlistForm{}
		fs.StringVar(&w.Email, "email", "", "email address")
		fs.StringVar(&w.TourDuration, "duration", "", "tour duration")
		interests := fs.String("interests", "", "comma-separated interest types")
		fs.StringVar(&w.FitnessLevel, "fitness", "", "fitness level")
		fs.StringVar(&w.TravelTimeline, "timeline", "", "travel timeline")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		w.InterestTypes = splitList(*interests)
		f = w
	case "contact":
		c := &submission.ContactForm{}
		fs.StringVar(&c.Name, "name", "", "your name")
		fs.StringVar(&c.Email, "email", "", "email address")
		fs.StringVar(&c.Subject, "subject", "", "subject (optional)")
		fs.StringVar(&c.Message, "message", "", "message")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		c.Locale = i18n.Normalize(*locale)
		f = c
	default:
		fmt.Fprintf(stderr, "unknown form %q\n", args[0])
		return 2
	}

	tr := i18n.Translator{Locale: *locale}
	ctl := submission.New(*base, f, submission.WithTranslator(tr))
	st, err := ctl.Submit(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if st.Success {
		key := "waitlistJoined"
		if args[0] == "contact" {
			key = "contactSent"
		}
		fmt.Fprintln(stdout, tr.Translate(key))
		return 0
	}
	if st.GeneralError != "" {
		fmt.Fprintln(stderr, st.GeneralError)
	}
	names := make([]string, 0, len(st.FieldErrors))
	for name := range st.FieldErrors {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(stderr, "%s: %s\n", name, st.FieldErrors[name])
	}
	return 1
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
