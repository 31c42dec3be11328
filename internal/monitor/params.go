package monitor

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Selection is the parsed form of a Decode parameter string:
// an optional device filter and an ordered list of field names.
type Selection struct {
	// Device is the --nic fragment. DeviceSet is false when the flag was absent.
	Device    string
	DeviceSet bool

	// Fields keeps every --fields occurrence in the order given.
	Fields []string
}

// newFlagSet returns a flag set that ignores flags it does not know.
// help/h are declared so that "--help" in a parameter string is ignored too.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SortFlags = false
	fs.BoolP("help", "h", false, "")
	return fs
}

// ParseInterval reads --interval=<seconds> from para. def is returned when
// the flag is absent. Values that are not positive decimal integers fail
// with a *ParamError.
func ParseInterval(para string, def int) (int, error) {
	fs := newFlagSet("get")
	raw := fs.String("interval", "", "sampling interval in seconds")
	if err := parseFlags(fs, para); err != nil {
		return 0, err
	}
	if !fs.Changed("interval") {
		return def, nil
	}

	value := *raw
	if value == "" || strings.TrimLeft(value, "0123456789") != "" {
		return 0, &ParamError{Flag: "interval", Value: value, Reason: "not a positive integer"}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParamError{Flag: "interval", Value: value, Reason: "out of range"}
	}
	if n <= 0 {
		return 0, &ParamError{Flag: "interval", Value: value, Reason: "must be at least 1"}
	}
	return n, nil
}

// ParseSelection reads --nic=<fragment> and repeated --fields=<name> from para.
func ParseSelection(para string) (Selection, error) {
	fs := newFlagSet("decode")
	nic := fs.String("nic", "", "device name fragment")
	fields := fs.StringArray("fields", nil, "field to project, repeatable")
	if err := parseFlags(fs, para); err != nil {
		return Selection{}, err
	}
	return Selection{
		Device:    *nic,
		DeviceSet: fs.Changed("nic"),
		Fields:    *fields,
	}, nil
}

// parseFlags splits para on whitespace and parses it into fs. The only error
// pflag reports once unknown flags are allowed is a recognized flag with no
// value, which is turned into a *ParamError naming that flag.
func parseFlags(fs *pflag.FlagSet, para string) error {
	err := fs.Parse(strings.Fields(para))
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	flag := ""
	if _, after, ok := strings.Cut(err.Error(), "--"); ok {
		if words := strings.Fields(after); len(words) > 0 {
			flag = words[0]
		}
	}
	return &ParamError{Flag: flag, Reason: err.Error()}
}
