// Package diagnostics implements spec §6's "Diagnostic patching (external
// shell)": a downstream C++ compiler reports errors against the generated
// file, and this package rewrites each diagnostic line to name the origin
// file and line the user actually wrote, via a sourcemap.Mapper. It never
// touches the compiler's own wording, only the file:line[:col] prefix.
package diagnostics

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/fatih/color"
)

// gnuPattern matches GCC/Clang-style diagnostics: file:line[:col]: kind
var gnuPattern = regexp.MustCompile(`^([^:]+):(\d+)(?::(\d+))?:\s*(.*)$`)

// msvcPattern matches MSVC-style diagnostics: file(line[,col]): kind
var msvcPattern = regexp.MustCompile(`^([^()]+)\((\d+)(?:,(\d+))?\):\s*(.*)$`)

// originLookup is the position-resolution a Patcher needs: either a
// sourcemap.Mapper built fresh from a translation run, or a
// sourcemap.Consumer reading a standard V3 map file off disk.
type originLookup interface {
	Lookup(generatedLine int) (string, int)
}

// Patcher rewrites compiler diagnostics against generatedFile to point at
// each line's origin, via mapper.
type Patcher struct {
	mapper        originLookup
	generatedFile string
	color         bool
}

// NewPatcher builds a Patcher for diagnostics reported against
// generatedFile. enableColor controls whether patched lines get
// severity-colorized (normally true for a TTY, false when piping output).
// mapper is usually a *sourcemap.Mapper built by a translation run, but
// any originLookup works, e.g. a *sourcemap.Consumer reading a
// previously-written standard map file without retranslating.
func NewPatcher(mapper originLookup, generatedFile string, enableColor bool) *Patcher {
	return &Patcher{mapper: mapper, generatedFile: generatedFile, color: enableColor}
}

// PatchLine rewrites a single diagnostic line. A line whose file doesn't
// match generatedFile (a system header, a different translation unit) is
// returned unchanged, per spec §6's "passed through unchanged" rule. A line
// that doesn't look like a diagnostic at all (compiler banner text, a blank
// line) is also returned unchanged.
func (p *Patcher) PatchLine(line string) string {
	if m := gnuPattern.FindStringSubmatch(line); m != nil && m[1] == p.generatedFile {
		return p.rewriteGNU(m[2], m[3], m[4])
	}
	if m := msvcPattern.FindStringSubmatch(line); m != nil && m[1] == p.generatedFile {
		return p.rewriteMSVC(m[2], m[3], m[4])
	}
	return line
}

func (p *Patcher) rewriteGNU(lineStr, colStr, rest string) string {
	originFile, originLine, message := p.resolve(lineStr, rest)
	if colStr != "" {
		return fmt.Sprintf("%s:%d:%s: %s", originFile, originLine, colStr, message)
	}
	return fmt.Sprintf("%s:%d: %s", originFile, originLine, message)
}

func (p *Patcher) rewriteMSVC(lineStr, colStr, rest string) string {
	originFile, originLine, message := p.resolve(lineStr, rest)
	if colStr != "" {
		return fmt.Sprintf("%s(%d,%s): %s", originFile, originLine, colStr, message)
	}
	return fmt.Sprintf("%s(%d): %s", originFile, originLine, message)
}

// resolve looks up the generated line's origin and applies color to rest.
// genLine is guaranteed numeric by the caller's regex, so the Atoi error
// is unreachable and safely ignored.
func (p *Patcher) resolve(genLineStr, rest string) (string, int, string) {
	genLine, _ := strconv.Atoi(genLineStr)
	originFile, originLine := p.mapper.Lookup(genLine)

	message := rest
	if p.color {
		message = colorizeMessage(rest)
	}
	return originFile, originLine, message
}

// colorizeMessage applies fatih/color severity coloring to the portion of
// a diagnostic after the location: "error:"/"warning:"/"note:" prefixes,
// matching the convention GCC/Clang/MSVC diagnostics share.
func colorizeMessage(message string) string {
	switch {
	case len(message) >= 6 && message[:6] == "error:":
		return color.RedString("error:") + message[6:]
	case len(message) >= 8 && message[:8] == "warning:":
		return color.YellowString("warning:") + message[8:]
	case len(message) >= 5 && message[:5] == "note:":
		return color.CyanString("note:") + message[5:]
	default:
		return message
	}
}

// PatchStream reads diagnostics from r line by line, patches each, and
// writes the result to w.
func (p *Patcher) PatchStream(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, p.PatchLine(scanner.Text())); err != nil {
			return err
		}
	}
	return scanner.Err()
}
