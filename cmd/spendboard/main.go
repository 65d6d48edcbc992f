// Command spendboard renders the spending display once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"spendboard/internal/amqp"
	"spendboard/internal/cli"
	"spendboard/internal/config"
	"spendboard/internal/log"
	"spendboard/internal/render"
	"spendboard/internal/services"
	"spendboard/internal/sources/file"
)

func main() {
	account := flag.String("account", "", "account to render (default SPENDBOARD_ACCOUNT)")
	out := flag.String("out", "", "output PNG path (default OUTPUT_PATH)")
	importPath := flag.String("import", "", "load a transactions JSON file into the SQLite ledger and exit")
	demo := flag.Bool("demo", false, "render the sample totals instead of reading a source")
	publish := flag.Bool("publish", false, "queue a render request for the worker instead of rendering here")
	flag.Parse()

	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	if *out == "" {
		*out = cfg.OutputPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch {
	case *importPath != "":
		err = importTransactions(ctx, logger, cfg, *importPath)
	case *publish:
		err = publishRequest(ctx, logger, cfg, *account, *out)
	default:
		if *demo {
			cfg.DataSource = config.SourceDemo
		}
		err = generate(ctx, logger, cfg, *account, *out)
	}
	if err != nil {
		logger.Error("spendboard failed", log.FieldError, err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, logger *log.Logger, cfg *config.Config, account, out string) error {
	display, err := cli.NewDisplay(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer display.Close()

	res, err := display.Generate(ctx, services.Request{Account: account})
	if err != nil {
		return err
	}
	if err := render.WriteFile(out, res.PNG); err != nil {
		return err
	}

	logger.Info("Display written",
		log.FieldAccount, res.Account,
		log.FieldOutput, out,
		"size", humanize.Bytes(uint64(len(res.PNG))),
		log.FieldDigest, res.Digest)
	fmt.Printf("%s  day %s  week %s  month %s\n", out, res.Labels.Day, res.Labels.Week, res.Labels.Month)
	return nil
}

func importTransactions(ctx context.Context, logger *log.Logger, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	txns, err := file.DecodeTransactions(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.RenderPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, importing without render requests", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	n, err := services.NewImportService(repo, publisher, cfg.Account).Import(ctx, txns)
	if err != nil {
		return err
	}
	logger.Info("Transactions imported",
		log.FieldOperation, log.OpImport,
		log.FieldCount, humanize.Comma(int64(n)),
		log.FieldSource, path)
	return nil
}

func publishRequest(ctx context.Context, logger *log.Logger, cfg *config.Config, account, out string) error {
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required with -publish")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	if account == "" {
		account = cfg.Account
	}
	if err := client.PublishRenderRequest(ctx, amqp.NewRenderRequestMessage(account, out)); err != nil {
		return err
	}
	logger.Info("Render request queued", log.FieldAccount, account, log.FieldQueue, cfg.AMQPQueue)
	return nil
}
