package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/hal"
)

type options struct {
	curiesPath string
	compact    bool
	relsBase   string
	indent     bool
	debug      bool
	inputs     []string
}

func parseOptions(args []string) (*options, error) {
	flags := pflag.NewFlagSet("hal-curie", pflag.ContinueOnError)
	flags.SetOutput(ioutil.Discard)

	ret := &options{}
	flags.StringVar(&ret.curiesPath, "curies", "", "a YAML file of curie declarations")
	flags.BoolVar(&ret.compact, "compact", false, "compact absolute relations into curies instead of expanding curies")
	flags.StringVar(&ret.relsBase, "rels-base", "", "if given, undeclared prefixes are mapped to <rels-base>/<prefix>-{rel}")
	flags.BoolVar(&ret.indent, "indent", false, "indent the output")
	flags.BoolVar(&ret.debug, "debug", false, "log debug information to stderr")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	ret.inputs = flags.Args()
	return ret, nil
}

// Run expands or compacts the curies of the HAL documents named by args, or of the document read
// from stdin if no files are given. The results are written to stdout, one per line.
func Run(stdin io.Reader, stdout io.Writer, stderr io.Writer, args ...string) []error {
	opts, err := parseOptions(args)
	if err != nil {
		return []error{err}
	}

	logger := logrus.New()
	logger.Out = stderr
	logger.Level = logrus.WarnLevel
	if opts.debug {
		logger.Level = logrus.DebugLevel
	}

	var table *curie.Table
	if opts.curiesPath != "" {
		if table, err = curie.LoadFile(opts.curiesPath); err != nil {
			return []error{err}
		}
	}
	logger.Debug("curie declarations:\n" + spew.Sdump(table.Mappings()))

	var provider curie.Provider
	if opts.relsBase != "" {
		provider = curie.SimpleProvider{RelsBaseURI: opts.relsBase}
	}

	rewrite := hal.ExpandCuries
	if opts.compact {
		rewrite = hal.CompactCuries
	}

	type document struct {
		name string
		data []byte
	}
	var documents []document
	var errs []error
	if len(opts.inputs) == 0 {
		data, err := ioutil.ReadAll(stdin)
		if err != nil {
			return []error{errors.Wrap(err, "unable to read stdin")}
		}
		documents = append(documents, document{name: "stdin", data: data})
	}
	for _, path := range opts.inputs {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		documents = append(documents, document{name: path, data: data})
	}

	for _, doc := range documents {
		out, err := rewrite(doc.data, table, provider)
		if err != nil {
			errs = append(errs, errors.Wrap(err, doc.name))
			continue
		}
		if opts.indent {
			var buf bytes.Buffer
			if err := json.Indent(&buf, out, "", "  "); err != nil {
				errs = append(errs, errors.Wrap(err, doc.name))
				continue
			}
			out = buf.Bytes()
		}
		logger.WithField("document", doc.name).Debugf("rewrote %v bytes into %v bytes", len(doc.data), len(out))
		if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
			return append(errs, err)
		}
	}

	return errs
}

func main() {
	if errs := Run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}
