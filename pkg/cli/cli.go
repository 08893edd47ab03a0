package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ", ") }

type Flag struct {
	Name        string
	Shorthand   string
	Usage       string
	Value       Value
	DefValue    string
	Placeholder string
}

func (f *Flag) isBool() bool {
	_, ok := f.Value.(*boolValue)
	return ok
}

// FlagGroupEntry documents one member of a prefixed family such as -W<name>.
type FlagGroupEntry struct {
	Name    string
	Usage   string
	Enabled bool
}

type FlagGroup struct {
	Name    string
	Prefix  string
	Kind    string
	Entries []FlagGroupEntry
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	prefixes   map[string]*Flag
	groups     []FlagGroup
	args       []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
		prefixes:   make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, placeholder string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, value, placeholder)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

// Special collects every "-<prefix><rest>" argument's rest into p.
func (f *FlagSet) Special(p *[]string, prefix, usage, placeholder string) {
	*p = []string{}
	f.Var(&listValue{p}, prefix, "", usage, "", placeholder)
	f.prefixes[prefix] = f.flags[prefix]
}

// AddFlagGroup documents a family of values accepted by a Special prefix.
func (f *FlagSet) AddFlagGroup(name, prefix, kind string, entries []FlagGroupEntry) {
	f.groups = append(f.groups, FlagGroup{Name: name, Prefix: prefix, Kind: kind, Entries: entries})
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, placeholder string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, Placeholder: placeholder}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

// Parse processes arguments. A lone "-" is positional and "--" ends flag
// parsing, which is how a program starting with '-' is passed.
func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		switch {
		case arg == "--":
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		case len(arg) < 2 || arg[0] != '-':
			f.args = append(f.args, arg)
		case strings.HasPrefix(arg, "--"):
			if err := f.parseLong(arg[2:], arguments, &i); err != nil {
				return err
			}
		default:
			if err := f.parseShort(arg[1:], arguments, &i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FlagSet) parseLong(body string, arguments []string, i *int) error {
	name, value, hasValue := strings.Cut(body, "=")
	if name == "" {
		return fmt.Errorf("empty flag name")
	}
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: --%s", name)
	}
	return f.set(flag, "--"+name, value, hasValue, arguments, i)
}

func (f *FlagSet) parseShort(body string, arguments []string, i *int) error {
	for prefix, flag := range f.prefixes {
		if strings.HasPrefix(body, prefix) && len(body) > len(prefix) {
			return flag.Value.Set(body[len(prefix):])
		}
	}

	short := body[:1]
	flag, ok := f.shorthands[short]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", short)
	}
	rest := strings.TrimPrefix(body[1:], "=")
	return f.set(flag, "-"+short, rest, rest != "", arguments, i)
}

func (f *FlagSet) set(flag *Flag, spelled, value string, hasValue bool, arguments []string, i *int) error {
	if hasValue {
		return flag.Value.Set(value)
	}
	if flag.isBool() {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: %s", spelled)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
	Stdout      io.Writer
	Stderr      io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintf(a.Stderr, "%s: %v\n", a.Name, err)
		a.writeUsage(a.Stderr)
		return err
	}
	if help {
		a.writeHelp(a.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func indent(level int) string { return strings.Repeat(" ", 4*level) }

func (a *App) optionFlags() []*Flag {
	var flags []*Flag
	for _, flag := range a.FlagSet.flags {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func formatFlag(flag *Flag) string {
	if _, special := flag.Value.(*listValue); special {
		return fmt.Sprintf("-%s<%s>", flag.Name, flag.Placeholder)
	}
	var sb strings.Builder
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if !flag.isBool() && flag.Placeholder != "" {
		fmt.Fprintf(&sb, " <%s>", flag.Placeholder)
	}
	return sb.String()
}

func (a *App) writeUsage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	fmt.Fprintf(&sb, "\nRun '%s --help' for all available options and flags.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

func (a *App) writeHelp(w io.Writer) {
	var sb strings.Builder
	width := terminalWidth()
	flags := a.optionFlags()

	left := 0
	for _, flag := range flags {
		left = max(left, len(formatFlag(flag)))
	}
	for _, group := range a.FlagSet.groups {
		for _, entry := range group.Entries {
			left = max(left, len(entry.Name))
		}
	}

	if len(a.Authors) > 0 {
		fmt.Fprintf(&sb, "\n%sCopyright (c) %s and contributors\n", indent(1), strings.Join(a.Authors, ", "))
	}
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent(1), a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indent(1), indent(2), a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n", indent(1))
		for _, line := range wrapText(a.Description, width-len(indent(2))) {
			fmt.Fprintf(&sb, "%s%s\n", indent(2), line)
		}
	}

	fmt.Fprintf(&sb, "\n%sOptions\n", indent(1))
	for _, flag := range flags {
		right := ""
		if !flag.isBool() && flag.DefValue != "" {
			right = fmt.Sprintf("|%s|", flag.DefValue)
		}
		writeEntry(&sb, width, left, formatFlag(flag), flag.Usage, right)
	}

	for _, group := range a.FlagSet.groups {
		fmt.Fprintf(&sb, "\n%s%s\n", indent(1), group.Name)
		entries := make([]FlagGroupEntry, len(group.Entries))
		copy(entries, group.Entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		writeEntry(&sb, width, left, fmt.Sprintf("-%s<%s>", group.Prefix, group.Kind), "Enable a specific "+group.Kind, "")
		writeEntry(&sb, width, left, fmt.Sprintf("-%sno-<%s>", group.Prefix, group.Kind), "Disable a specific "+group.Kind, "")
		for _, entry := range entries {
			mark := "|-|"
			if entry.Enabled {
				mark = "|x|"
			}
			writeEntry(&sb, width, left, entry.Name, entry.Usage, mark)
		}
	}
	fmt.Fprint(w, sb.String())
}

// writeEntry prints "left usage right" with usage wrapped under itself.
func writeEntry(sb *strings.Builder, width, leftWidth int, left, usage, right string) {
	pad := len(indent(2)) + leftWidth + 1
	avail := width - pad - len(right) - 2
	if avail < 10 {
		avail = 10
	}
	lines := wrapText(usage, avail)
	if len(lines) == 0 {
		lines = []string{""}
	}
	if right != "" {
		fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indent(2), leftWidth, left, avail, lines[0], right)
	} else {
		fmt.Fprintf(sb, "%s%-*s %s\n", indent(2), leftWidth, left, lines[0])
	}
	for _, line := range lines[1:] {
		fmt.Fprintf(sb, "%s%s\n", strings.Repeat(" ", pad), line)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	if width < 20 {
		return 20
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if maxWidth <= 0 || len(words) == 0 {
		return words
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+1+len(word) > maxWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
