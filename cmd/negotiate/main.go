package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	geminirender "haggle/internal/adapter/render/gemini"
	templaterender "haggle/internal/adapter/render/template"
	"haggle/internal/adapter/repo/memory"
	sqliterepo "haggle/internal/adapter/repo/sqlite"
	"haggle/internal/app/live"
	"haggle/internal/app/negotiate"
	"haggle/internal/app/ports"
	"haggle/internal/domain/negotiation"

	"github.com/joho/godotenv"
)

type options struct {
	product           string
	marketPrice       float64
	buyerName         string
	buyerPersonality  string
	buyerAnchor       float64
	sellerName        string
	sellerPersonality string
	sellerCost        float64
	maxRounds         int
	termination       string
	seed              int64
	typingDelay       time.Duration
	roundPause        time.Duration
	archive           string
	renderer          string
	live              bool
	role              string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("negotiate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.product, "product", "Vintage Lamp", "product under negotiation")
	fs.Float64Var(&o.marketPrice, "market-price", 15000, "reference market price")
	fs.StringVar(&o.buyerName, "buyer-name", "Buyer", "buyer display name")
	fs.StringVar(&o.buyerPersonality, "buyer-personality", "Diplomatic Buyer", "buyer personality label")
	fs.Float64Var(&o.buyerAnchor, "buyer-anchor", 16000, "buyer resale ceiling")
	fs.StringVar(&o.sellerName, "seller-name", "Seller", "seller display name")
	fs.StringVar(&o.sellerPersonality, "seller-personality", "Diplomatic Seller", "seller personality label")
	fs.Float64Var(&o.sellerCost, "seller-cost", 14000, "seller cost price")
	fs.IntVar(&o.maxRounds, "max-rounds", negotiation.DefaultMaxRounds, "round limit")
	fs.StringVar(&o.termination, "termination", string(negotiation.TerminationWalkAway), "seller policy at the forced round: walk_away or floor")
	fs.Int64Var(&o.seed, "seed", 0, "phrase selection seed (0 picks one from the clock)")
	fs.DurationVar(&o.typingDelay, "typing-delay", 15*time.Millisecond, "delay per character when printing messages")
	fs.DurationVar(&o.roundPause, "round-pause", 300*time.Millisecond, "pause between rounds when printing")
	fs.StringVar(&o.archive, "archive", "", "sqlite file to archive results in (empty disables)")
	fs.StringVar(&o.renderer, "renderer", "template", "message renderer: template or gemini")
	fs.BoolVar(&o.live, "live", false, "play one agent against counterparty messages read from stdin")
	fs.StringVar(&o.role, "role", string(negotiation.RoleBuyer), "agent role in -live mode: buyer or seller")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	o.role = strings.ToLower(strings.TrimSpace(o.role))
	if o.role != string(negotiation.RoleBuyer) && o.role != string(negotiation.RoleSeller) {
		return options{}, fmt.Errorf("-role must be buyer or seller, got %q", o.role)
	}
	if o.typingDelay < 0 || o.roundPause < 0 {
		return options{}, errors.New("-typing-delay and -round-pause must not be negative")
	}
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
	}
	return o, nil
}

func (o options) sessionConfig() negotiation.SessionConfig {
	return negotiation.SessionConfig{
		Product:     o.product,
		MarketPrice: o.marketPrice,
		Buyer: negotiation.PartyConfig{
			Name:        o.buyerName,
			Personality: o.buyerPersonality,
			AnchorPrice: o.buyerAnchor,
		},
		Seller: negotiation.PartyConfig{
			Name:        o.sellerName,
			Personality: o.sellerPersonality,
			AnchorPrice: o.sellerCost,
		},
		MaxRounds:         o.maxRounds,
		SellerTermination: negotiation.Termination(o.termination),
	}
}

func (o options) liveStart() live.StartRequest {
	req := live.StartRequest{
		Role:        negotiation.Role(o.role),
		MarketPrice: o.marketPrice,
		Product:     o.product,
		Termination: negotiation.Termination(o.termination),
		MaxRounds:   o.maxRounds,
	}
	if req.Role == negotiation.RoleSeller {
		req.Name, req.Personality, req.AnchorPrice = o.sellerName, o.sellerPersonality, o.sellerCost
		req.CounterpartyName = o.buyerName
	} else {
		req.Name, req.Personality, req.AnchorPrice = o.buyerName, o.buyerPersonality, o.buyerAnchor
		req.CounterpartyName = o.sellerName
	}
	return req
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	renderer, closeRenderer, err := buildRenderer(ctx, opts)
	if err != nil {
		return err
	}
	defer closeRenderer()

	var (
		repo ports.NegotiationRepository
		tx   ports.TxManager
	)
	if opts.archive != "" {
		db, err := sqliterepo.Open(opts.archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		repo, tx = sqliterepo.NewNegotiationRepo(db), sqliterepo.NewTxManager(db)
	}

	tr := newTranscript(out, opts.typingDelay)
	if opts.live {
		uc := live.UseCase{Sessions: memory.NewLiveStore(), Repo: repo, Renderer: renderer}
		return runLive(ctx, uc, opts, in, tr)
	}

	uc := negotiate.UseCase{TxManager: tx, Repo: repo, Renderer: renderer}
	resp, err := uc.Execute(ctx, negotiate.Request{Config: opts.sessionConfig()})
	if err != nil {
		return err
	}
	tr.header(resp.Config)
	tr.replay(resp.History, opts.roundPause)
	for _, w := range resp.Warnings {
		tr.warning(w)
	}
	tr.result(resp.Status, resp.FinalPrice, resp.Rounds)
	if repo != nil {
		tr.note(fmt.Sprintf("archived as %s in %s", resp.ID, opts.archive))
	}
	return nil
}

func buildRenderer(ctx context.Context, opts options) (ports.MessageRenderer, func(), error) {
	switch strings.ToLower(opts.renderer) {
	case "", "template":
		return templaterender.New(opts.seed), func() {}, nil
	case "gemini":
		r, err := geminirender.New(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL_NAME"))
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported renderer %q", opts.renderer)
	}
}

// runLive reads one counterparty message per line. "/quit" or end of input
// walks away.
func runLive(ctx context.Context, uc live.UseCase, opts options, in io.Reader, tr *transcript) error {
	started, err := uc.Start(ctx, opts.liveStart())
	if err != nil {
		return err
	}
	counterparty := negotiation.RoleSeller
	if started.Role == negotiation.RoleSeller {
		counterparty = negotiation.RoleBuyer
	}
	tr.note(fmt.Sprintf("live session %s: you are the %s, type messages with a price, /quit to walk away", started.ID, counterparty))

	scanner := bufio.NewScanner(in)
	for {
		tr.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		resp, err := uc.Step(ctx, live.StepRequest{SessionID: started.ID, CounterpartyText: line})
		if err != nil {
			return err
		}
		if resp.Last != nil {
			tr.liveStep(started.Role, agentName(resp), *resp.Last)
		}
		if resp.Status != "" {
			tr.result(resp.Status, resp.FinalPrice, resp.Round)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	resp, err := uc.End(ctx, live.Request{SessionID: started.ID})
	if err != nil {
		return err
	}
	tr.result(resp.Status, resp.FinalPrice, resp.Round)
	return nil
}

func agentName(resp live.Response) string {
	for i := len(resp.History) - 1; i >= 0; i-- {
		if resp.History[i].Role == resp.Role && resp.History[i].Speaker != "" {
			return resp.History[i].Speaker
		}
	}
	return string(resp.Role)
}
