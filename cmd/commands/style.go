package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/application"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/sld"
	"github.com/ardanlabs/conf/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"
)

// parseArgs parses command line arguments of the style commands, which need
// no other configuration. A nil result means help was printed.
func parseArgs(minArgs int, usage string) (conf.Args, error) {
	cfg := struct {
		Args conf.Args
	}{}
	help, err := conf.Parse("", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return cfg.Args, nil
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := jsoniter.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func Bootstrap() error {
	args, err := parseArgs(1, "bootstrap <layer> [geometry type]")
	if args == nil {
		return err
	}
	fmt.Println(sld.Bootstrap(args.Num(0), args.Num(1)))
	return nil
}

func Decode() error {
	args, err := parseArgs(1, "decode <file.sld>")
	if args == nil {
		return err
	}
	body, err := os.ReadFile(args.Num(0))
	if err != nil {
		return fmt.Errorf("reading style: %w", err)
	}
	return writeJSON(os.Stdout, sld.Decode(string(body)), term.IsTerminal(int(os.Stdout.Fd())))
}

func Encode() error {
	args, err := parseArgs(2, "encode <file.sld> <properties.json>")
	if args == nil {
		return err
	}
	body, err := os.ReadFile(args.Num(0))
	if err != nil {
		return fmt.Errorf("reading style: %w", err)
	}
	patch, err := os.ReadFile(args.Num(1))
	if err != nil {
		return fmt.Errorf("reading properties: %w", err)
	}
	props, err := application.MergeProperties(string(body), patch)
	if err != nil {
		return err
	}
	fmt.Println(sld.Encode(string(body), props))
	return nil
}
