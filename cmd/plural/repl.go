package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"nickandperla.net/plural/pkg/plural"
)

const helpText = `Enter a program to compile it, e.g. nplurals=2; plural=n != 1;
Enter counts to evaluate the current program, e.g. 1 or 0,1,5..10
End a line with \ to continue it.

  :load LOCALE   use the catalog rule for LOCALE
  :locales       list known locales
  :ast           print the current program
  :quit          exit (or Ctrl+D)
`

// session is the state shared by the basic and raw REPLs.
type session struct {
	catalog *plural.Catalog
	gnu     bool
	current *plural.Program
	out     io.Writer
	errOut  io.Writer
}

func newSession(catalog *plural.Catalog, gnu bool, out, errOut io.Writer) *session {
	return &session{catalog: catalog, gnu: gnu, out: out, errOut: errOut}
}

// handle runs one complete input. It reports whether the REPL should exit.
func (s *session) handle(input string) (string, bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false, nil
	}

	if strings.HasPrefix(input, ":") {
		cmd, arg, _ := strings.Cut(input[1:], " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "q", "quit":
			return "", true, nil
		case "h", "help":
			return strings.TrimRight(helpText, "\n"), false, nil
		case "ast":
			if s.current == nil {
				return "", false, fmt.Errorf("no program")
			}
			return s.current.String(), false, nil
		case "load":
			if arg == "" {
				return "", false, fmt.Errorf(":load needs a locale")
			}
			p, err := s.catalog.Lookup(arg)
			if err != nil {
				return "", false, err
			}
			s.current = p
			return p.String(), false, nil
		case "locales":
			locales, err := s.catalog.Locales()
			if err != nil {
				return "", false, err
			}
			return strings.Join(locales, " "), false, nil
		}
		return "", false, fmt.Errorf("unknown command :%s", cmd)
	}

	if ns, err := parseCounts(input); err == nil {
		if s.current == nil {
			return "", false, fmt.Errorf("no program")
		}
		lines := make([]string, 0, len(ns))
		for _, n := range ns {
			line, err := describe(s.current, n)
			if err != nil {
				return strings.Join(lines, "\n"), false, fmt.Errorf("n=%d: %w", n, err)
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), false, nil
	}

	var opts []plural.Option
	if s.gnu {
		opts = append(opts, plural.WithGNUTernary())
	}
	p, err := plural.Compile(input, opts...)
	if err != nil {
		return "", false, err
	}
	s.current = p
	return p.String(), false, nil
}

func (s *session) printBanner() {
	fmt.Fprintln(s.out, "plural REPL (:help for commands, Ctrl+D to exit)")
	fmt.Fprintln(s.out)
}

// report prints the result of handle and reports whether to exit.
func (s *session) report(input string) bool {
	result, quit, err := s.handle(input)
	if result != "" {
		fmt.Fprintln(s.out, result)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(s.errOut, "Error: %v\n", err)
	}
	return quit
}

func runREPL(s *session, stdin io.Reader) {
	s.printBanner()

	// Check if stdin is a terminal
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		runBasicREPL(s, stdin)
		return
	}

	runRawREPL(s, f)
}

// runBasicREPL handles non-TTY input (piped input)
func runBasicREPL(s *session, in io.Reader) {
	reader := bufio.NewReader(in)
	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Fprint(s.out, "... ")
		} else {
			fmt.Fprint(s.out, ">>> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(s.out)
			return
		}

		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}

		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}

		if s.report(input) {
			return
		}
	}
}

// crlf translates \n to \r\n for output in raw mode.
type crlf struct{ w io.Writer }

func (c crlf) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, strings.ReplaceAll(string(p), "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// runRawREPL handles TTY input with line editing and history
func runRawREPL(s *session, in *os.File) {
	fd := int(in.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(s.errOut, "Failed to set raw mode: %v\n", err)
		runBasicREPL(s, in)
		return
	}
	defer term.Restore(fd, oldState)

	s.out, s.errOut = crlf{s.out}, crlf{s.errOut}

	var (
		multiline   strings.Builder
		inMultiline bool
		history     []string
	)

	for {
		if inMultiline {
			fmt.Fprint(s.out, "... ")
		} else {
			fmt.Fprint(s.out, ">>> ")
		}

		line, eof := readLineRaw(in, s.out, history)
		if eof {
			fmt.Fprint(s.out, "\n")
			return
		}
		if strings.TrimSpace(line) != "" {
			history = append(history, line)
		}

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}

		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}

		if s.report(input) {
			return
		}
	}
}

// readLineRaw reads a line in raw mode. Up and Down walk history.
// Returns the line and whether EOF was encountered
func readLineRaw(in io.Reader, out io.Writer, history []string) (string, bool) {
	var line []byte
	cursor := 0 // Position in line (for arrow key navigation)
	hist := len(history)
	buf := make([]byte, 1)

	readByte := func() (byte, bool) {
		n, err := in.Read(buf)
		if err != nil || n == 0 {
			return 0, false
		}
		return buf[0], true
	}

	// Helper to redraw line from cursor position
	redrawFromCursor := func() {
		// Clear from cursor to end of line
		fmt.Fprint(out, "\x1b[K")
		out.Write(line[cursor:])
		// Move cursor back to position
		if cursor < len(line) {
			fmt.Fprintf(out, "\x1b[%dD", len(line)-cursor)
		}
	}

	replace := func(s string) {
		if cursor > 0 {
			fmt.Fprintf(out, "\x1b[%dD", cursor)
		}
		line = []byte(s)
		cursor = 0
		redrawFromCursor()
		if len(line) > 0 {
			fmt.Fprintf(out, "\x1b[%dC", len(line))
		}
		cursor = len(line)
	}

	for {
		b, ok := readByte()
		if !ok {
			return string(line), true
		}

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Fprint(out, "^C\n")
			return "", false

		case 0x0d, 0x0a: // Enter (CR or LF)
			fmt.Fprint(out, "\n")
			return string(line), false

		case 0x7f, 0x08: // Backspace (DEL or BS)
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Fprint(out, "\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC [ sequence
			if next, ok := readByte(); !ok || next != '[' {
				continue
			}
			key, ok := readByte()
			if !ok {
				continue
			}
			switch key {
			case 'A': // Up arrow
				if hist > 0 {
					hist--
					replace(history[hist])
				}
			case 'B': // Down arrow
				if hist < len(history)-1 {
					hist++
					replace(history[hist])
				} else if hist < len(history) {
					hist = len(history)
					replace("")
				}
			case 'C': // Right arrow
				if cursor < len(line) {
					cursor++
					fmt.Fprint(out, "\x1b[C")
				}
			case 'D': // Left arrow
				if cursor > 0 {
					cursor--
					fmt.Fprint(out, "\x1b[D")
				}
			case '3': // Delete key: ESC [ 3 ~
				if tilde, ok := readByte(); ok && tilde == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A - beginning of line
			if cursor > 0 {
				fmt.Fprintf(out, "\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E - end of line
			if cursor < len(line) {
				fmt.Fprintf(out, "\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K - kill to end of line
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Fprint(out, "\x1b[K")
			}

		case 0x15: // Ctrl+U - kill to beginning of line
			if cursor > 0 {
				fmt.Fprintf(out, "\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			// Programs are ASCII; other bytes are dropped.
			if b >= 0x20 && b < 0x7f {
				line = append(line, 0)
				copy(line[cursor+1:], line[cursor:])
				line[cursor] = b
				cursor++
				out.Write([]byte{b})
				if cursor < len(line) {
					redrawFromCursor()
				}
			}
		}
	}
}
