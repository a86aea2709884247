package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JeanGrijp/cascade-gateway/internal/config"
	"github.com/JeanGrijp/cascade-gateway/internal/core/codec"
	"github.com/JeanGrijp/cascade-gateway/internal/core/policy"
)

var (
	osExit = os.Exit
	stdin  io.Reader = os.Stdin
	now              = time.Now
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("cascadectl failed")
		osExit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("command required")
	}
	switch args[0] {
	case "sign":
		return sign(args[1:], out)
	case "data-url":
		return dataURL(args[1:], out)
	case "decode":
		return decode(args[1:], out)
	case "check-url":
		return checkURL(args[1:], out)
	default:
		usage(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "cascadectl commands:")
	fmt.Fprintln(out, "  sign --preset strict --signer fetch --payload http://example.com/")
	fmt.Fprintln(out, "  data-url --preset strict [--base http://localhost:3001] [--ts 1700000000]")
	fmt.Fprintln(out, "  decode --chain hex,base64 < blob")
	fmt.Fprintln(out, "  check-url --preset strict --guard fetch --url http://127.0.0.1/")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func loadSet(preset, file string) (*policy.Set, error) {
	set, err := policy.Load(preset, file)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return set, nil
}

func sign(args []string, out io.Writer) error {
	fs := newFlagSet("sign")
	preset := fs.String("preset", "strict", "embedded policy preset")
	file := fs.String("policy-file", "", "external policy file")
	signerName := fs.String("signer", "fetch", "signer name")
	payload := fs.String("payload", "", "value to sign")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *payload == "" {
		return errors.New("--payload is required")
	}

	set, err := loadSet(*preset, *file)
	if err != nil {
		return err
	}
	signer, ok := set.Signers[*signerName]
	if !ok {
		return fmt.Errorf("unknown signer %q", *signerName)
	}
	fmt.Fprintln(out, signer.Derive(*payload))
	return nil
}

func dataURL(args []string, out io.Writer) error {
	fs := newFlagSet("data-url")
	preset := fs.String("preset", "strict", "embedded policy preset")
	file := fs.String("policy-file", "", "external policy file")
	signerName := fs.String("signer", "data", "signer name")
	base := fs.String("base", config.LoadInternal().BaseURL(), "internal service base url (defaults to INTERNAL_HOST/INTERNAL_PORT)")
	ts := fs.Int64("ts", 0, "unix timestamp (defaults to now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set, err := loadSet(*preset, *file)
	if err != nil {
		return err
	}
	signer, ok := set.Signers[*signerName]
	if !ok {
		return fmt.Errorf("unknown signer %q", *signerName)
	}

	stamp := *ts
	if stamp == 0 {
		stamp = now().Unix()
	}
	raw := strconv.FormatInt(stamp, 10)
	q := url.Values{}
	q.Set("token", signer.Derive(raw))
	q.Set("ts", raw)
	fmt.Fprintf(out, "%s/data?%s\n", strings.TrimRight(*base, "/"), q.Encode())
	return nil
}

func decode(args []string, out io.Writer) error {
	fs := newFlagSet("decode")
	chainSpec := fs.String("chain", "base64", "transforms applied when the blob was produced, in order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	chain, err := codec.ParseChainString(*chainSpec)
	if err != nil {
		return err
	}
	blob, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}
	plain, err := chain.Consume([]byte(strings.TrimSpace(string(blob))))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(out, string(plain))
	return nil
}

func checkURL(args []string, out io.Writer) error {
	fs := newFlagSet("check-url")
	preset := fs.String("preset", "strict", "embedded policy preset")
	file := fs.String("policy-file", "", "external policy file")
	guardName := fs.String("guard", "fetch", "url guard name")
	target := fs.String("url", "", "url to classify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return errors.New("--url is required")
	}

	set, err := loadSet(*preset, *file)
	if err != nil {
		return err
	}
	guard, ok := set.URLGuards[*guardName]
	if !ok {
		return fmt.Errorf("unknown url guard %q", *guardName)
	}
	if label, blocked := guard.Check(*target); blocked {
		fmt.Fprintf(out, "blocked (%s)\n", label)
		return nil
	}
	fmt.Fprintln(out, "clean")
	return nil
}
