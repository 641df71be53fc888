package main

import (
	"flag"
	"fmt"
	"os"

	appaggregator "main/internal/application/service/aggregator"
	appsession "main/internal/application/service/session"
	apptrading "main/internal/application/service/trading"
	domain "main/internal/domain/entity/trading"
	domaininterfaces "main/internal/domain/interfaces"
	"main/internal/infrastructure/feed"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// orderScript is one scripted order, applied once playback reaches the
// given base candle index.
type orderScript struct {
	Index        int    `csv:"index"`
	Action       string `csv:"action"`
	Contracts    int    `csv:"contracts"`
	ContractType string `csv:"contract_type"`
}

func main() {
	csvPath := flag.String("candles", "", "candle CSV file; empty generates a synthetic session")
	ordersPath := flag.String("orders", "", "optional scripted orders CSV (index,action,contracts,contract_type)")
	seed := flag.Int64("seed", 0, "random seed for the synthetic feed and slippage")
	balance := flag.Float64("balance", 5000, "starting balance")
	warmup := flag.Int("warmup", 250, "candles preloaded before the session starts")
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	var source domaininterfaces.CandleSource
	if *csvPath != "" {
		source = feed.NewCSVSource(*csvPath)
	} else {
		source = feed.NewGenerator(feed.GeneratorConfig{Seed: *seed}, logger)
	}
	series, err := source.Series()
	if err != nil {
		logger.Fatalf("load candle series: %v", err)
	}

	var script []orderScript
	if *ordersPath != "" {
		script, err = loadScript(*ordersPath)
		if err != nil {
			logger.Fatalf("load order script: %v", err)
		}
	}

	engine := apptrading.NewEngine(apptrading.Config{
		StartingBalance: *balance,
	}, apptrading.NewRandSource(*seed), nil, logger)

	session := appsession.NewService(appsession.Config{
		WarmupCandles: *warmup,
	}, engine, appaggregator.NewService(), nil, nil, logger)
	session.Load(series)

	runSession(session, script, *warmup, logger)
	printReport(session)
}

func runSession(session *appsession.Service, script []orderScript, warmup int, logger *logrus.Logger) {
	next := 0
	for index := warmup; ; index++ {
		for next < len(script) && script[next].Index <= index {
			applyOrder(session, script[next], logger)
			next++
		}
		if !session.Step() {
			return
		}
	}
}

func applyOrder(session *appsession.Service, order orderScript, logger *logrus.Logger) {
	contractType := domain.ContractType(order.ContractType)
	if !contractType.IsValid() {
		contractType = domain.ContractMNQ
	}

	var err error
	switch order.Action {
	case "buy":
		err = session.Buy(order.Contracts, contractType)
	case "sell":
		err = session.Sell(order.Contracts, contractType)
	case "flatten":
		err = session.Flatten()
	default:
		logger.Warnf("skipping unknown action %q at index %d", order.Action, order.Index)
		return
	}
	if err != nil {
		logger.Warnf("order at index %d not applied: %v", order.Index, err)
	}
}

func loadScript(path string) ([]orderScript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var script []orderScript
	if err := gocsv.UnmarshalFile(f, &script); err != nil {
		return nil, err
	}
	return script, nil
}

func printReport(session *appsession.Service) {
	snapshot := session.Snapshot()

	fmt.Println("Session summary:")
	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"Realized", "Unrealized", "Total", "Margin Used", "Margin Called"})
	summary.Append([]string{
		fmt.Sprintf("%.2f", snapshot.RealizedBalance),
		fmt.Sprintf("%.2f", snapshot.UnrealizedPnL),
		fmt.Sprintf("%.2f", snapshot.TotalBalance),
		fmt.Sprintf("%.2f", snapshot.TotalMarginRequired),
		fmt.Sprintf("%t", snapshot.MarginCalled),
	})
	summary.Render()

	trades := session.Trades()
	if len(trades) == 0 {
		fmt.Println("No trades.")
		return
	}

	fmt.Println("Trade blotter:")
	blotter := tablewriter.NewWriter(os.Stdout)
	blotter.SetHeader([]string{"Time", "Side", "Contracts", "Price", "Realized PnL"})
	for _, trade := range trades {
		blotter.Append([]string{
			trade.Timestamp.Format("15:04"),
			trade.Side.String(),
			fmt.Sprintf("%d", trade.Contracts),
			fmt.Sprintf("%.2f", trade.Price),
			fmt.Sprintf("%.2f", trade.RealizedPnL),
		})
	}
	blotter.Render()
}
