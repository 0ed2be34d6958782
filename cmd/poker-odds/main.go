package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/poker"
)

type CLI struct {
	Hands      []string `arg:"" help:"Player hands in format 'AcKd QhJs' (space separated, quoted)" required:"true"`
	Board      string   `short:"b" help:"Community board cards (e.g., 'Td7s8h')"`
	Dead       string   `short:"d" help:"Dead cards removed from the deck"`
	Unknown    int      `short:"u" help:"Number of opponents with unknown hands"`
	Iterations int      `short:"i" help:"Number of Monte Carlo iterations" default:"100000"`
	Workers    int      `short:"w" help:"Monte Carlo workers (0 for the default)"`
	Seed       *int64   `help:"Random seed for reproducible results"`
	Verbose    bool     `short:"v" help:"Log engine details"`
}

var (
	// Style definitions
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	equityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("poker-odds"),
		kong.Description("Multi-way hold'em equity calculator"))

	logger := log.New(os.Stderr)
	logger.SetLevel(log.WarnLevel)
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(context.Background(), cli, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}
}

// run parses the request, computes equity and writes the table to out.
func run(ctx context.Context, cli CLI, out io.Writer, logger *log.Logger) error {
	req, err := buildRequest(cli)
	if err != nil {
		return err
	}

	cfg := equity.DefaultConfig()
	if cli.Workers > 0 {
		cfg.Workers = cli.Workers
	}
	clock := quartz.NewReal()
	engine := equity.NewEngine(cfg, logger, clock)

	start := clock.Now()
	results, err := engine.Calculate(ctx, req)
	if err != nil {
		return err
	}

	displayResults(out, req, results, clock.Since(start))
	return nil
}

func buildRequest(cli CLI) (equity.Request, error) {
	hands, err := parseHands(cli.Hands)
	if err != nil {
		return equity.Request{}, fmt.Errorf("parsing hands: %w", err)
	}
	if cli.Unknown < 0 {
		return equity.Request{}, fmt.Errorf("unknown opponents must not be negative")
	}
	for range cli.Unknown {
		hands = append(hands, 0)
	}

	req := equity.Request{
		Hands:      hands,
		Iterations: cli.Iterations,
		Seed:       cli.Seed,
	}
	if cli.Board != "" {
		if req.Board, err = poker.ParseCards(cli.Board); err != nil {
			return equity.Request{}, fmt.Errorf("parsing board: %w", err)
		}
	}
	if cli.Dead != "" {
		if req.Dead, err = poker.ParseCards(cli.Dead); err != nil {
			return equity.Request{}, fmt.Errorf("parsing dead cards: %w", err)
		}
	}
	return req, nil
}

func parseHands(handStrings []string) ([]poker.Hand, error) {
	var hands []poker.Hand

	for i, handStr := range handStrings {
		cards, err := poker.ParseCards(handStr)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %v", i+1, err)
		}
		if len(cards) != 2 {
			return nil, fmt.Errorf("hand %d: must contain exactly 2 cards, got %d", i+1, len(cards))
		}
		hands = append(hands, poker.NewHand(cards...))
	}

	return hands, nil
}

func displayResults(out io.Writer, req equity.Request, results []equity.Result, duration time.Duration) {
	if len(req.Board) > 0 {
		fmt.Fprintf(out, "%s\n", headerStyle.Render("board"))
		fmt.Fprintf(out, "%s\n\n", poker.FormatCards(req.Board))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("equity"))

	for i, result := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			handStyle.Render(formatHand(req.Hands[i])),
			winStyle.Render(percent(result.WinProbability())),
			tieStyle.Render(percent(result.TieProbability())),
			equityStyle.Render(percent(result.Equity())))
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\n%s in %v\n", describeSamples(results[0]), duration.Truncate(time.Millisecond))
}

func formatHand(h poker.Hand) string {
	if h == 0 {
		return "??"
	}
	return strings.ReplaceAll(h.String(), " ", "")
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func describeSamples(r equity.Result) string {
	if r.Exact {
		return fmt.Sprintf("%d boards enumerated", r.Samples)
	}
	return fmt.Sprintf("%d iterations", r.Samples)
}
