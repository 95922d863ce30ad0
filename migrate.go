package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/catalog"
	memoryx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/memory"
	configx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/config"
	logx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/logger"
)

type seeder interface {
	Seed(ctx context.Context, flights []catalog.Flight, hotels []catalog.Hotel) error
}

func newMigrateCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create catalog, booking and note tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runMigrate(ctx, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the sample flights and hotels")
	return cmd
}

func runMigrate(ctx context.Context, seed bool) error {
	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return err
	}
	logx.Init(*logCfg)

	appCfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return err
	}
	a := &app{cfg: *appCfg}
	defer a.Close()

	cat, err := a.catalogStore(ctx)
	if err != nil {
		return err
	}
	switch s := cat.(type) {
	case *catalog.SQLStore:
		if err := s.CreateTables(ctx); err != nil {
			return err
		}
	case *catalog.MongoStore:
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("catalog %s: %w", appCfg.CatalogBackend, errUnsupportedMigration)
	}

	if strings.EqualFold(appCfg.NotesBackend, "sql") {
		notes, err := a.noteStore(ctx)
		if err != nil {
			return err
		}
		if sqlNotes, ok := notes.(*memoryx.SQLNoteStore); ok {
			if err := sqlNotes.CreateTables(ctx); err != nil {
				return err
			}
		}
	}

	if seed {
		s, ok := cat.(seeder)
		if !ok {
			return errors.New("catalog backend cannot be seeded")
		}
		if err := s.Seed(ctx, catalog.SampleFlights(), catalog.SampleHotels()); err != nil {
			return err
		}
	}

	log.Info().Str("catalog_backend", appCfg.CatalogBackend).Bool("seeded", seed).Msg("migration complete")
	return nil
}
