// Package worker regenerates displays on request and on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendboard/internal/amqp"
	"spendboard/internal/log"
	"spendboard/internal/render"
	"spendboard/internal/services"
)

// Generator produces one display.
type Generator interface {
	Generate(ctx context.Context, req services.Request) (*services.Result, error)
}

// RenderWorker writes generated displays to disk.
type RenderWorker struct {
	gen           Generator
	defaultOutput string
	perAccount    bool
	concurrency   int
	logger        *log.Logger
}

// NewRenderWorker creates a worker writing to defaultOutput. With
// perAccount set, each account gets its own file next to it, e.g.
// display-main.png.
func NewRenderWorker(gen Generator, defaultOutput string, perAccount bool, concurrency int) *RenderWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RenderWorker{
		gen:           gen,
		defaultOutput: defaultOutput,
		perAccount:    perAccount,
		concurrency:   concurrency,
		logger:        log.WithComponent(log.ComponentWorker),
	}
}

// OutputPathFor returns where account's display is written by default.
func (w *RenderWorker) OutputPathFor(account string) string {
	if !w.perAccount || account == "" {
		return w.defaultOutput
	}
	ext := filepath.Ext(w.defaultOutput)
	base := strings.TrimSuffix(w.defaultOutput, ext)
	return fmt.Sprintf("%s-%s%s", base, sanitize(account), ext)
}

func sanitize(account string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, account)
}

// HandleRenderRequest is an amqp.Handler. Malformed source data is reported
// as permanent so the message is not redelivered forever.
func (w *RenderWorker) HandleRenderRequest(ctx context.Context, msg *amqp.RenderRequestMessage) error {
	out := msg.OutputPath
	if out == "" {
		out = w.OutputPathFor(msg.Account)
	}
	err := w.render(ctx, msg.Account, out, time.Time{})
	if services.IsDataError(err) {
		return amqp.Permanent(err)
	}
	return err
}

// RenderAll renders every account concurrently, bounded by the worker's
// concurrency. Each account succeeds or fails on its own; the returned error
// joins all failures.
func (w *RenderWorker) RenderAll(ctx context.Context, accounts []string, now time.Time) error {
	errs := make([]error, len(accounts))
	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, account := range accounts {
		g.Go(func() error {
			errs[i] = w.render(ctx, account, w.OutputPathFor(account), now)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Run renders all accounts immediately and then every interval until ctx
// is done.
func (w *RenderWorker) Run(ctx context.Context, accounts []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.RenderAll(ctx, accounts, time.Time{}); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled render failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Render loop stopped", log.FieldOperation, log.OpShutdown)
			return
		case <-ticker.C:
		}
	}
}

func (w *RenderWorker) render(ctx context.Context, account, out string, now time.Time) error {
	res, err := w.gen.Generate(ctx, services.Request{Account: account, Now: now})
	if err != nil {
		return fmt.Errorf("render %q: %w", account, err)
	}
	if err := render.WriteFile(out, res.PNG); err != nil {
		return fmt.Errorf("write display for %q: %w", account, err)
	}
	w.logger.InfoContext(ctx, "Display written",
		log.FieldAccount, account, log.FieldOutput, out, log.FieldDigest, res.Digest)
	return nil
}
