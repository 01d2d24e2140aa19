package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/modek4/crypto-tax/internal/cache"
	"github.com/modek4/crypto-tax/internal/config"
	"github.com/modek4/crypto-tax/internal/ledger"
	"github.com/modek4/crypto-tax/internal/model"
	"github.com/modek4/crypto-tax/internal/nbp"
	"github.com/modek4/crypto-tax/internal/pricing"
	"github.com/modek4/crypto-tax/internal/processor"
	"github.com/modek4/crypto-tax/internal/report"
)

func main() {
	log.SetFlags(log.LstdFlags)

	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	input := flag.String("input", "", "path to the exchange statement CSV")
	output := flag.String("output", "", "path for the xlsx report (default PIT38_<year>.xlsx)")
	year := flag.Int("year", 0, "tax year to settle")
	carried := flag.Float64("carried", -1, "cost surplus carried from prior years (PLN)")
	stablecoins := flag.String("stablecoins", "", "comma-separated extra stablecoin symbols")
	verbose := flag.Bool("v", false, "log every processed row")
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	// Flag overrides win over file and environment.
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *year != 0 {
		cfg.Tax.TargetYear = *year
	}
	if *carried >= 0 {
		cfg.Tax.CarriedCosts = *carried
	}
	if *stablecoins != "" {
		cfg.Tax.ExtraStablecoins = *stablecoins
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if cfg.Input.Path == "" {
		log.Fatalf("[FATAL] no input statement; use -input or input.path in config")
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = fmt.Sprintf("PIT38_%d.xlsx", cfg.Tax.TargetYear)
	}

	in, err := os.Open(cfg.Input.Path)
	if err != nil {
		log.Fatalf("[FATAL] open input: %v", err)
	}
	rows, err := ledger.Read(in, cfg.SeparatorRune())
	in.Close()
	if err != nil {
		var missing *ledger.MissingColumnsError
		if errors.As(err, &missing) {
			log.Fatalf("[FATAL] %v", missing)
		}
		log.Fatalf("[FATAL] read statement: %v", err)
	}
	log.Printf("[INFO] read %d ledger rows from %s", len(rows), cfg.Input.Path)

	var store cache.Store = cache.NewMemory()
	if cfg.Cache.SQLitePath != "" {
		if sq, err := cache.NewSQLite(cfg.Cache.SQLitePath); err != nil {
			log.Printf("[WARN] init sqlite cache failed, using in-memory: %v", err)
		} else {
			store = sq
		}
	}
	defer store.Close()

	rates := nbp.NewClient(cfg.Sources.NBPBaseURL, store)
	prices := pricing.NewResolver(cfg.Sources.KlinesBaseURL, store, cfg.ExtraStablecoinList())
	proc := processor.New(rates, prices)

	runCfg := model.Config{
		TargetYear:       cfg.Tax.TargetYear,
		CarriedCosts:     decimal.NewFromFloat(cfg.Tax.CarriedCosts),
		ExtraStablecoins: cfg.ExtraStablecoinList(),
	}
	onProgress := func(current, total int, msg string) {
		if *verbose || current%100 == 0 || current == total {
			log.Printf("[INFO] %d/%d %s", current, total, msg)
		}
	}

	res := proc.Run(rows, runCfg, onProgress)

	if err := report.Write(res, runCfg, cfg.Output.Path); err != nil {
		log.Fatalf("[FATAL] write report: %v", err)
	}
	log.Printf("[INFO] report written: %s", cfg.Output.Path)

	printSummary(res)
}

func printSummary(res *model.Result) {
	fmt.Printf("Tax year summary (run %s)\n", res.RunID)
	fmt.Printf("  Revenue from sales:        %s PLN\n", res.TotalRevenueSale.StringFixed(2))
	fmt.Printf("  Revenue from earn/staking: %s PLN\n", res.TotalRevenueEarn.StringFixed(2))
	fmt.Printf("  Total revenue (field 34):  %s PLN\n", res.TotalRevenue.StringFixed(2))
	fmt.Printf("  Total costs (field 35):    %s PLN\n", res.TotalCosts.StringFixed(2))
	fmt.Printf("  Net income:                %s PLN\n", res.Income.StringFixed(2))
	fmt.Printf("  Surplus to carry forward:  %s PLN\n", res.SurplusToCarry.StringFixed(2))
	fmt.Printf("  Taxable base:              %s PLN\n", res.BasePLN.StringFixed(0))
	fmt.Printf("  Tax due (19%%):             %s PLN\n", res.TaxPLN.StringFixed(0))
	if len(res.Warnings) > 0 {
		fmt.Printf("  NOTE: %d rows need manual review (see Warnings sheet)\n", len(res.Warnings))
	}
	if len(res.NonSpotAccounts) > 0 {
		fmt.Printf("  NOTE: non-spot accounts were skipped: %v\n", res.NonSpotAccounts)
	}
}
