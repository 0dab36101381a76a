package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/config"
	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/ifrange"
	"github.com/vshulcz/Intfstat/internal/render"
	"github.com/vshulcz/Intfstat/internal/services/report"
	"github.com/vshulcz/Intfstat/internal/services/stat"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitRuntime = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg, err := config.Load(args, os.Stderr)
	if err != nil {
		log.Printf("intfstat: %v", err)
		return exitUsage
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return exitRuntime
	}
	defer logger.Sync()

	spec, err := filterSpec(cfg)
	if err != nil {
		log.Printf("intfstat: %v", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := buildService(cfg, logger)

	if err := dispatch(ctx, svc, cfg, spec, out); err != nil {
		logger.Error("command failed", zap.String("action", string(cfg.Action)), zap.Error(err))
		return exitCode(err)
	}
	return exitOK
}

func dispatch(ctx context.Context, svc *stat.Service, cfg config.Config, spec report.FilterSpec, out io.Writer) error {
	switch cfg.Action {
	case config.ActionSave:
		if err := svc.Save(ctx, cfg.Namespace, cfg.Tag); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "Saved baseline %q.\n", cfg.Tag)
		return err

	case config.ActionDelete:
		if err := svc.Delete(ctx, cfg.Tag); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "Deleted baseline %q.\n", cfg.Tag)
		return err

	case config.ActionDeleteAll:
		if err := svc.DeleteAll(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "Deleted all baselines.")
		return err

	case config.ActionRate:
		rep, err := svc.Rate(ctx, cfg.Namespace, spec, cfg.Period)
		if err != nil {
			return err
		}
		return emit(out, cfg, rep)

	case config.ActionWatch:
		return svc.Watch(ctx, cfg.Namespace, spec, cfg.Interval, func(rep report.Report) error {
			return emit(out, cfg, rep)
		})

	default:
		rep, err := svc.Show(ctx, cfg.Namespace, spec, cfg.Tag)
		if err != nil {
			return err
		}
		return emit(out, cfg, rep)
	}
}

func filterSpec(cfg config.Config) (report.FilterSpec, error) {
	set, err := ifrange.Parse(cfg.Interfaces)
	if err != nil {
		return report.FilterSpec{}, err
	}
	return report.FilterSpec{
		Interfaces:  set,
		Scope:       cfg.Scope,
		Category:    cfg.Category,
		RateOnly:    cfg.Action == config.ActionRate || cfg.Action == config.ActionWatch,
		Detail:      cfg.Detail,
		NonZeroOnly: cfg.NonZeroOnly,
	}, nil
}

func emit(out io.Writer, cfg config.Config, rep report.Report) error {
	if cfg.JSON {
		return render.JSON(out, rep)
	}
	return render.Table(out, rep)
}

func exitCode(err error) int {
	if errors.Is(err, domain.ErrInvalidFilter) {
		return exitUsage
	}
	return exitRuntime
}
