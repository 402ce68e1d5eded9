// Package cli is the interactive terminal front end: login, forced password
// change, and the role home screens including the admin roster importer.
//
// Every command runs to completion before the next prompt is shown.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/roster"
)

// errQuit ends the session loop without an error.
var errQuit = errors.New("quit")

// FileParser loads a roster from disk.
type FileParser func(path string) (domain.Roster, error)

// Options configures a Console. Zero values select stdin/stdout and the
// default roster parser.
type Options struct {
	In          io.Reader
	Out         io.Writer
	ParseFile   FileParser
	PreviewRows int
	Log         zerolog.Logger
}

type Console struct {
	auth        ports.AuthService
	provisioner ports.ProvisioningService
	parseFile   FileParser
	previewRows int

	in     *bufio.Reader
	inFile *os.File // set when input is a terminal, for hidden password entry
	out    io.Writer
	log    zerolog.Logger
}

func New(auth ports.AuthService, provisioner ports.ProvisioningService, opts Options) *Console {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ParseFile == nil {
		opts.ParseFile = roster.ParseFile
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = roster.DefaultPreviewRows
	}

	c := &Console{
		auth:        auth,
		provisioner: provisioner,
		parseFile:   opts.ParseFile,
		previewRows: opts.PreviewRows,
		in:          bufio.NewReader(opts.In),
		out:         opts.Out,
		log:         opts.Log,
	}
	if f, ok := opts.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.inFile = f
	}
	return c
}

// Run drives sessions until the user quits, input ends or ctx is cancelled.
// Only fatal errors (such as a lost database connection) are returned.
func (c *Console) Run(ctx context.Context) error {
	c.println("Counseling program login")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := c.session(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			c.println("bye")
			return nil
		default:
			return err
		}
	}
}

// session runs one login until logout.
func (c *Console) session(ctx context.Context) error {
	cred, err := c.login(ctx)
	if err != nil {
		return err
	}

	if cred.MustChangePassword {
		changed, err := c.forcePasswordChange(ctx, cred.Username)
		if err != nil {
			return err
		}
		if !changed {
			c.println("Password change is required. Access denied.")
			return nil
		}
	}

	c.log.Info().Str("username", cred.Username).Str("role", cred.Role).Msg("console session opened")
	defer c.log.Info().Str("username", cred.Username).Msg("console session closed")

	if cred.Role == domain.RoleAdmin {
		return c.adminHome(ctx, cred.Username)
	}
	return c.userHome(cred.Username, cred.Role)
}

func (c *Console) login(ctx context.Context) (*domain.Credential, error) {
	for {
		username, err := c.prompt("ID: ")
		if err != nil {
			return nil, err
		}
		password, err := c.secret("Password: ")
		if err != nil {
			return nil, err
		}

		cred, err := c.auth.Login(ctx, username, password)
		if errors.Is(err, domain.ErrAuthentication) {
			c.println("Login failed: " + err.Error())
			continue
		}
		if err != nil {
			return nil, err
		}
		return cred, nil
	}
}

// forcePasswordChange loops until the password is changed or the user
// cancels with an empty entry.
func (c *Console) forcePasswordChange(ctx context.Context, username string) (bool, error) {
	c.printf("User %s must change the password before continuing (leave empty to cancel).\n", username)
	for {
		next, err := c.secret("New password: ")
		if err != nil {
			return false, err
		}
		if next == "" {
			return false, nil
		}
		confirm, err := c.secret("Confirm: ")
		if err != nil {
			return false, err
		}

		err = c.auth.ChangePassword(ctx, username, next, confirm)
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.println(ve.Reason)
			continue
		}
		if err != nil {
			return false, err
		}
		c.println("Password changed.")
		return true, nil
	}
}

func (c *Console) userHome(username, role string) error {
	c.printf("Welcome, %s (%s)\n", username, role)
	c.println("Counseling records and profile editing are not available yet.")
	for {
		line, err := c.prompt(role + "> ")
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
		case "logout":
			return nil
		case "quit", "exit":
			return errQuit
		default:
			c.println("commands: logout, quit")
		}
	}
}

const adminHelp = `commands:
  target student|teacher   choose what the loaded file contains (default student)
  load <path>              read a .tsv or .xlsx roster and show a preview
  preview [n]              show the first n rows of the loaded roster
  save                     store the loaded roster and create accounts
  logout                   end this session
  quit                     exit the program`

// adminState is the upload tab: a target and the last loaded file.
type adminState struct {
	target domain.ImportTarget
	path   string
	roster *domain.Roster
}

func (c *Console) adminHome(ctx context.Context, username string) error {
	c.printf("Admin home: %s\n", username)
	c.println(adminHelp)

	st := &adminState{target: domain.TargetStudent}
	for {
		if err := ctx.Err(); err != nil {
			return errQuit
		}
		line, err := c.prompt(fmt.Sprintf("admin[%s]> ", st.target))
		if err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(cmd) {
		case "":
		case "help", "?":
			c.println(adminHelp)
		case "target":
			target, err := domain.ParseImportTarget(arg)
			if err != nil {
				c.println(err.Error())
				continue
			}
			st.target = target
			c.printf("target set to %s\n", target)
		case "load":
			c.load(st, arg)
		case "preview":
			c.preview(st, arg)
		case "save":
			if err := c.save(ctx, st); err != nil {
				return err
			}
		case "logout":
			return nil
		case "quit", "exit":
			return errQuit
		default:
			c.printf("unknown command %q, type help\n", cmd)
		}
	}
}

func (c *Console) load(st *adminState, path string) {
	if path == "" {
		c.println("usage: load <path>")
		return
	}
	r, err := c.parseFile(path)
	if err != nil {
		c.printf("Could not load file: %v\n", err)
		return
	}
	st.path, st.roster = path, &r
	c.printf("Loaded %s: %d rows, columns: %s\n", path, r.Len(), strings.Join(r.Columns, ", "))
	c.printPreview(r, c.previewRows)
}

func (c *Console) preview(st *adminState, arg string) {
	if st.roster == nil {
		c.println("Load a file first.")
		return
	}
	n := c.previewRows
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v <= 0 {
			c.println("usage: preview [n]")
			return
		}
		n = v
	}
	c.printPreview(*st.roster, n)
}

func (c *Console) printPreview(r domain.Roster, n int) {
	for i, line := range roster.Preview(r, n) {
		c.printf("%4d  %s\n", i+1, line)
	}
}

// save imports the loaded roster. Missing columns and other recoverable
// problems are reported; a lost connection is returned as fatal.
func (c *Console) save(ctx context.Context, st *adminState) error {
	if st.roster == nil {
		c.println("Load a file first.")
		return nil
	}

	res, err := c.provisioner.Import(ctx, st.target, *st.roster)
	if errors.Is(err, domain.ErrConnection) {
		return err
	}
	if err != nil {
		c.printf("Save failed: %v\n", err)
		return nil
	}

	c.printf("%s data from %s saved: %d rows processed, %d accounts created", st.target, st.path, res.Processed, res.Created)
	if res.Skipped > 0 {
		c.printf(", %d rows skipped", res.Skipped)
	}
	c.println("")
	return nil
}

// prompt reads one trimmed line. A final line without newline is returned
// before io.EOF.
func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// secret reads a password without echo when attached to a terminal.
// Passwords are not trimmed beyond the line terminator.
func (c *Console) secret(label string) (string, error) {
	if c.inFile == nil {
		fmt.Fprint(c.out, label)
		line, err := c.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(c.out, label)
	b, err := term.ReadPassword(int(c.inFile.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Console) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }
