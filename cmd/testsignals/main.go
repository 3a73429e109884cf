// Command testsignals renders the codec fixture catalogue to WAV files.
//
// Usage:
//
//	testsignals [flags]
//
// Examples:
//
//	testsignals
//	testsignals -o fixtures -rates 48000 -types compliance,stereo
//	testsignals -bits 24 -seed 7
//	testsignals -list -rates 16000
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-testsignals/campaign"
	"github.com/cwbudde/algo-testsignals/dsp/core"
)

func main() {
	out := flag.String("o", "assets/test_audio", "output directory for generated test files")
	rates := flag.String("rates", "16000,44100,48000", "comma-separated sample rates in Hz")
	types := flag.String("types", campaign.All, "comma-separated suites: compliance,quality,stereo,stress,all")
	bits := flag.Int("bits", 16, "output bit depth: 16, 24 or 32 (float)")
	seed := flag.Uint64("seed", 0, "base seed for noise fixtures")
	scale := flag.Float64("scale", 1, "duration scale for quick smoke runs")
	jobs := flag.Int("j", 0, "sample rates rendered at once (0 = all)")
	list := flag.Bool("list", false, "list the fixtures each suite renders and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: testsignals [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Renders codec test fixtures as WAV files plus reference metadata.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  testsignals -o fixtures -rates 48000 -types compliance,stereo\n")
		fmt.Fprintf(os.Stderr, "  testsignals -bits 24 -seed 7\n")
		fmt.Fprintf(os.Stderr, "  testsignals -list -rates 16000\n")
	}
	flag.Parse()

	log.SetFlags(0)

	sampleRates, err := parseRates(*rates)
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	suites, err := campaign.ParseSuites(strings.Split(*types, ","))
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	if *list {
		if err := printList(os.Stdout, sampleRates, suites, *scale); err != nil {
			log.Fatalf("error: %v", err)
		}
		return
	}

	depth, err := core.ParseBitDepth(*bits)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	runner, err := campaign.NewRunner(*out,
		campaign.WithSeed(*seed),
		campaign.WithBitDepth(depth),
		campaign.WithDurationScale(*scale),
		campaign.WithConcurrency(*jobs),
		campaign.WithLogger(log.Default()),
	)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := runner.Run(ctx, sampleRates, suites); err != nil {
		stop()
		log.Fatalf("error: %v", err)
	}
}

func parseRates(s string) ([]int, error) {
	var rates []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		rate, err := strconv.Atoi(field)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid sample rate %q: %w", field, core.ErrInvalidArgument)
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no sample rates given: %w", core.ErrInvalidArgument)
	}
	return rates, nil
}

// printList writes one row per fixture with its rendered duration.
func printList(w io.Writer, rates []int, suites []campaign.Suite, scale float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Rate\tSuite\tDuration [s]\tFixture\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "----\t-----\t------------\t-------\n"); err != nil {
		return err
	}

	for _, rate := range rates {
		for _, s := range suites {
			fixtures, err := campaign.Fixtures(s, rate)
			if err != nil {
				return err
			}
			for _, fx := range fixtures {
				if _, err := fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s.wav\n", rate, s, fx.Duration*scale, fx.Name); err != nil {
					return err
				}
			}
		}
	}
	return tw.Flush()
}
