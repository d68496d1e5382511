// Package console implements the interactive dashboard client. It keeps one
// session per process, persisted through a session slot.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// Session is the process-wide session the shell acts as.
type Session interface {
	Login(ctx context.Context, username, password string) (*domain.Identity, error)
	Logout(ctx context.Context)
	CurrentIdentity() (domain.Identity, bool)
	Context(ctx context.Context) context.Context
}

// ViewGuard decides which screen a session may open.
type ViewGuard interface {
	Decide(ctx context.Context, view domain.View) (domain.Decision, error)
}

type Shell struct {
	session   Session
	directory ports.DirectoryService
	records   ports.RecordService
	guard     ViewGuard
	out       io.Writer
	log       zerolog.Logger
}

func NewShell(
	session Session,
	directory ports.DirectoryService,
	records ports.RecordService,
	guard ViewGuard,
	out io.Writer,
	log zerolog.Logger,
) *Shell {
	return &Shell{
		session:   session,
		directory: directory,
		records:   records,
		guard:     guard,
		out:       out,
		log:       log,
	}
}

type command struct {
	usage string
	run   func(s *Shell, ctx context.Context, args string) error
}

var commands = map[string]command{
	"login":   {"login <username> <password>", (*Shell).login},
	"logout":  {"logout", (*Shell).logout},
	"whoami":  {"whoami", (*Shell).whoami},
	"records": {"records", (*Shell).listRecords},
	"record":  {"record <id>", (*Shell).showRecord},
	"status":  {"status <id> <pending|completed|archived>", (*Shell).setStatus},
	"new":     {"new <title> | <description>", (*Shell).newRecord},
	"users":   {"users", (*Shell).listUsers},
	"adduser": {"adduser <username> <role> <password> [name]", (*Shell).addUser},
	"rmuser":  {"rmuser <id>", (*Shell).removeUser},
	"counts":  {"counts", (*Shell).counts},
	"open":    {"open <root|login|dashboard|admin>", (*Shell).open},
}

var commandOrder = []string{
	"login", "logout", "whoami", "records", "record", "status", "new",
	"users", "adduser", "rmuser", "counts", "open",
}

// Run reads commands from in until EOF, "quit" or ctx is cancelled. Command
// errors are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			s.Exec(ctx, line)
		}
		s.prompt()
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)

	if name == "help" {
		s.help()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		s.printf("unknown command %q, try help\n", name)
		return
	}

	if err := cmd.run(s, s.session.Context(ctx), args); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			s.printf("usage: %s\n", cmd.usage)
			return
		}
		s.log.Debug().Err(err).Str("command", name).Msg("command failed")
		s.printf("error: %s\n", describe(err))
	}
}

type usageError struct{}

func (usageError) Error() string { return "usage" }

func (s *Shell) login(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return usageError{}
	}
	identity, err := s.session.Login(ctx, fields[0], fields[1])
	if err != nil {
		return err
	}
	s.printf("signed in as %s (%s)\n", identity.Username, identity.Role)
	return nil
}

func (s *Shell) logout(ctx context.Context, _ string) error {
	s.session.Logout(ctx)
	s.printf("signed out\n")
	return nil
}

func (s *Shell) whoami(context.Context, string) error {
	identity, ok := s.session.CurrentIdentity()
	if !ok {
		s.printf("not signed in\n")
		return nil
	}
	s.printf("%s  %s <%s>  role=%s id=%s\n", identity.Username, identity.Name, identity.Email, identity.Role, identity.ID)
	return nil
}

func (s *Shell) listRecords(ctx context.Context, _ string) error {
	records, err := s.records.ListVisibleRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.printf("no records\n")
		return nil
	}
	tw := s.table("ID", "OWNER", "STATUS", "TITLE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.UserID, r.Status, r.Title)
	}
	return tw.Flush()
}

func (s *Shell) showRecord(ctx context.Context, args string) error {
	if args == "" {
		return usageError{}
	}
	r, err := s.records.GetRecord(ctx, args)
	if err != nil {
		return err
	}
	s.printf("#%s %s [%s]\nowner: %s\ncreated: %s\n%s\n",
		r.ID, r.Title, r.Status, r.UserID, r.CreatedAt.Format("2006-01-02"), r.Description)
	return nil
}

func (s *Shell) setStatus(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return usageError{}
	}
	r, err := s.records.UpdateStatus(ctx, fields[0], domain.RecordStatus(fields[1]))
	if err != nil {
		return err
	}
	s.printf("record %s is now %s\n", r.ID, r.Status)
	return nil
}

func (s *Shell) newRecord(ctx context.Context, args string) error {
	title, description, _ := strings.Cut(args, "|")
	title = strings.TrimSpace(title)
	if title == "" {
		return usageError{}
	}
	r, err := s.records.CreateRecord(ctx, domain.NewRecord{
		Title:       title,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return err
	}
	s.printf("created record %s\n", r.ID)
	return nil
}

func (s *Shell) listUsers(ctx context.Context, _ string) error {
	identities, err := s.directory.ListIdentities(ctx)
	if err != nil {
		return err
	}
	tw := s.table("ID", "USERNAME", "ROLE", "NAME", "EMAIL")
	for _, it := range identities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Username, it.Role, it.Name, it.Email)
	}
	return tw.Flush()
}

func (s *Shell) addUser(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return usageError{}
	}
	name := strings.Join(fields[3:], " ")
	if name == "" {
		name = fields[0]
	}
	created, err := s.directory.AddIdentity(ctx, domain.NewIdentity{
		Username: fields[0],
		Role:     domain.Role(fields[1]),
		Password: fields[2],
		Name:     name,
	})
	if err != nil {
		return err
	}
	s.printf("added %s with id %s\n", created.Username, created.ID)
	return nil
}

func (s *Shell) removeUser(ctx context.Context, args string) error {
	if args == "" {
		return usageError{}
	}
	if err := s.directory.RemoveIdentity(ctx, args); err != nil {
		return err
	}
	s.printf("removed identity %s\n", args)
	return nil
}

func (s *Shell) counts(ctx context.Context, _ string) error {
	rows, err := s.records.ListIdentitiesWithRecordCounts(ctx)
	if err != nil {
		return err
	}
	tw := s.table("ID", "USERNAME", "RECORDS")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", row.ID, row.Username, row.RecordCount)
	}
	return tw.Flush()
}

func (s *Shell) open(ctx context.Context, args string) error {
	if args == "" {
		return usageError{}
	}
	d, err := s.guard.Decide(ctx, domain.View(args))
	if err != nil {
		return err
	}
	if d.Allowed {
		s.printf("%s: allowed\n", d.View)
	} else {
		s.printf("%s: redirect to %s\n", d.View, d.Redirect)
	}
	return nil
}

func (s *Shell) help() {
	for _, name := range commandOrder {
		s.printf("  %s\n", commands[name].usage)
	}
	s.printf("  help\n  quit\n")
}

func (s *Shell) prompt() {
	if identity, ok := s.session.CurrentIdentity(); ok {
		s.printf("%s> ", identity.Username)
		return
	}
	s.printf("> ")
}

func (s *Shell) table(headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// describe turns domain errors into short messages for the prompt.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "sign in first"
	case errors.Is(err, domain.ErrUnauthorized):
		return "not allowed for your role"
	default:
		return err.Error()
	}
}
