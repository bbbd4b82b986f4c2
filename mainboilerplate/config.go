package mainboilerplate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// ConfigRootEnv names an environment variable holding an additional
// directory to search for the INI configuration file.
const ConfigRootEnv = "BALLAST_CONFIG_ROOT"

// ConfigSearchPaths returns candidate paths of INI file |configName|, in
// the order they're searched:
//  * The current working directory.
//  * ~/.config/ballast (under the users's $HOME or %UserProfile% directory).
//  * $BALLAST_CONFIG_ROOT, if set.
func ConfigSearchPaths(configName string) []string {
	var prefixes = []string{
		".",
		filepath.Join(os.Getenv("HOME"), ".config", "ballast"),
		filepath.Join(os.Getenv("UserProfile"), ".config", "ballast"),
	}
	if root := os.Getenv(ConfigRootEnv); root != "" {
		prefixes = append(prefixes, root)
	}
	var out = make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		out = append(out, filepath.Join(prefix, configName))
	}
	return out
}

// MustParseConfig requires that the Parser parse from the combination of an
// optional INI file, configured environment bindings, and explicit flags.
// The first INI file of ConfigSearchPaths which exists is used.
func MustParseConfig(parser *flags.Parser, configName string) {
	// Allow unknown options while parsing an INI file.
	var origOptions = parser.Options
	parser.Options |= flags.IgnoreUnknown

	var iniParser = flags.NewIniParser(parser)

	for _, path := range ConfigSearchPaths(configName) {
		if err := iniParser.ParseFile(path); err == nil {
			break
		} else if os.IsNotExist(err) {
			// Pass.
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Restore original options for parsing argument flags.
	parser.Options = origOptions
	MustParseArgs(parser)
}

// MustParseArgs requires that Parser be able to ParseArgs without error.
func MustParseArgs(parser *flags.Parser) {
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		var flagErr, ok = err.(*flags.Error)
		if !ok {
			Must(err, "fatal error")
		}

		switch flagErr.Type {
		case flags.ErrDuplicatedFlag, flags.ErrTag, flags.ErrInvalidTag, flags.ErrShortNameTooLong, flags.ErrMarshal:
			// Developer errors in the parsed configuration struct, rather than input errors.
			panic(err)

		case flags.ErrCommandRequired:
			os.Stderr.WriteString("\n")
			parser.WriteHelp(os.Stderr)
			fmt.Fprintf(os.Stderr, "\n%s\n", VersionString())
			os.Exit(1)

		case flags.ErrHelp:
			if parser.Options&flags.PrintErrors == 0 {
				parser.WriteHelp(os.Stderr)
				fmt.Fprintf(os.Stderr, "\n%s\n", VersionString())
			}
			os.Exit(1)

		default:
			// go-flags has already printed a message describing the input error.
			os.Exit(1)
		}
	}
}

// AddPrintConfigCmd to the Parser. The "print-config" command exports all
// runtime configuration in INI format, which is also the format read from
// |configName|.
func AddPrintConfigCmd(parser *flags.Parser, configName string) {
	parser.AddCommand("print-config", "Print combined configuration and exit", `
print-config parses the combined configuration from `+configName+`, flags,
and environment variables, and then writes the configuration to stdout in INI format.
`, &printConfig{Parser: parser})
}

type printConfig struct {
	*flags.Parser `no-flag:"t"`
}

func (p printConfig) Execute([]string) error {
	var ini = flags.NewIniParser(p.Parser)
	ini.Write(os.Stdout, flags.IniIncludeComments|flags.IniCommentDefaults|flags.IniIncludeDefaults)
	return nil
}
