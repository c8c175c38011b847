package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ratiobudget/ratiobudget/internal/app"
	"github.com/ratiobudget/ratiobudget/internal/config"
	log "github.com/sirupsen/logrus"
)

type serveCmd struct{}

func (c *serveCmd) Run(g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}

type backupCmd struct {
	Export backupExportCmd `cmd:"" help:"Write the current data to a backup file."`
	Import backupImportCmd `cmd:"" help:"Preview a backup file and replace all data with it."`
}

type backupExportCmd struct {
	Out string `help:"Output directory or file. Defaults to a dated file in the working directory." type:"path"`
}

func (c *backupExportCmd) Run(g *Globals) error {
	deps, err := dependencies(g)
	if err != nil {
		return err
	}
	defer deps.Close()

	data, filename, err := deps.BackupService.Export()
	if err != nil {
		return err
	}
	return writeOutput(c.Out, filename, data)
}

type backupImportCmd struct {
	File string `required:"" help:"Backup file to import." type:"existingfile"`
	Yes  bool   `help:"Replace the current data without asking. Without it only the preview is printed."`
}

func (c *backupImportCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	deps, err := dependencies(g)
	if err != nil {
		return err
	}
	defer deps.Close()

	preview, err := deps.BackupService.Stage(data)
	if err != nil {
		return err
	}
	fmt.Printf("Backup %s\n", filepath.Base(c.File))
	fmt.Printf("  current month:      %s\n", preview.CurrentMonthKey)
	fmt.Printf("  months:             %s\n", strings.Join(preview.Months, ", "))
	fmt.Printf("  income sources:     %d\n", preview.Counts.IncomeSources)
	fmt.Printf("  savings categories: %d\n", preview.Counts.SavingsCategories)
	fmt.Printf("  expense categories: %d\n", preview.Counts.ExpenseCategories)
	fmt.Printf("  buffer categories:  %d\n", preview.Counts.BufferCategories)
	fmt.Printf("  transactions:       %d\n", preview.Counts.Transactions)
	fmt.Printf("  subscriptions:      %d\n", preview.Counts.Subscriptions)
	fmt.Printf("  savings goals:      %d\n", preview.Counts.SavingsGoals)

	if !c.Yes {
		fmt.Println("Nothing imported. Run again with --yes to replace all current data.")
		return deps.BackupService.Cancel(preview.Token)
	}
	if _, err := deps.BackupService.Confirm(context.Background(), preview.Token); err != nil {
		return err
	}
	fmt.Println("Backup imported.")
	return nil
}

type reportCmd struct {
	Out string `help:"Output directory or file. Defaults to a dated file in the working directory." type:"path"`
}

func (c *reportCmd) Run(g *Globals) error {
	deps, err := dependencies(g)
	if err != nil {
		return err
	}
	defer deps.Close()

	data, filename, err := deps.ReportService.Workbook()
	if err != nil {
		return err
	}
	return writeOutput(c.Out, filename, data)
}

func dependencies(g *Globals) (*app.Dependencies, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	return app.BuildDependencies(context.Background(), cfg)
}

// writeOutput writes data to out, or to filename inside out when out is a
// directory or empty.
func writeOutput(out, filename string, data []byte) error {
	path := filename
	if out != "" {
		path = out
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			path = filepath.Join(out, filename)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Infof("Wrote %s", path)
	return nil
}
