package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Toggle flags such as --copy or --skip-empty take an optional value, so
// "--copy", "--copy=off" and "--copy no" all parse.
const (
	toggleTypeName       = "bool"
	toggleImpliedValue   = "true"
	toggleAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	flagPrefix           = "--"
	argumentTerminator   = "--"
)

var toggleLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

// parseToggle reads a toggle literal. An empty value means the flag was given bare.
func parseToggle(raw string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		normalized = toggleImpliedValue
	}
	value, known := toggleLiterals[normalized]
	return value, known
}

type toggleFlag struct {
	target *bool
	name   string
}

func (flag *toggleFlag) Set(raw string) error {
	value, known := parseToggle(raw)
	if !known {
		return fmt.Errorf("invalid value %q for --%s; accepted values: %s", raw, flag.name, toggleAcceptedValues)
	}
	*flag.target = value
	return nil
}

func (flag *toggleFlag) String() string {
	if flag.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *toggleFlag) Type() string {
	return toggleTypeName
}

// registerToggleFlag declares a boolean flag that also accepts yes/no/on/off values.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&toggleFlag{target: target, name: name}, name, usage)
	declared := flagSet.Lookup(name)
	declared.DefValue = strconv.FormatBool(defaultValue)
	declared.NoOptDefVal = toggleImpliedValue
}

// joinToggleValues rewrites "--copy no" into "--copy=no" for every toggle
// declared on command or its subcommands. pflag would otherwise read "no" as
// the scan directory.
func joinToggleValues(command *cobra.Command, arguments []string) []string {
	toggles := map[string]struct{}{}
	collectToggleNames(command, toggles)
	joined := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentTerminator {
			return append(joined, arguments[index:]...)
		}
		name := strings.TrimPrefix(argument, flagPrefix)
		_, isToggle := toggles[name]
		if isToggle && name != argument && index+1 < len(arguments) {
			if _, known := parseToggle(arguments[index+1]); known && arguments[index+1] != "" {
				joined = append(joined, argument+"="+arguments[index+1])
				index++
				continue
			}
		}
		joined = append(joined, argument)
	}
	return joined
}

func collectToggleNames(command *cobra.Command, toggles map[string]struct{}) {
	command.Flags().VisitAll(func(flag *pflag.Flag) {
		if _, isToggle := flag.Value.(*toggleFlag); isToggle {
			toggles[flag.Name] = struct{}{}
		}
	})
	for _, child := range command.Commands() {
		collectToggleNames(child, toggles)
	}
}
