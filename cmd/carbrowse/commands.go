package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/carbrowse/engine/browse"
	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/engine/query"
	"github.com/WessleyAI/carbrowse/pkg/fn"
	"github.com/WessleyAI/carbrowse/pkg/natsutil"
	"github.com/WessleyAI/carbrowse/pkg/vehiclenlp"
)

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, args[i])
	}
	return n, nil
}

func (a *app) makesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "makes",
		Short: "List all manufacturers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), a.session.Makes(cmd.Context()))
		},
	}
}

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models <makeID>",
		Short: "List the models of a make.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "makeID")
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.session.Models(cmd.Context(), id))
		},
	}
}

func (a *app) generationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generations <modelID>",
		Short: "List the generations of a model.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "modelID")
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.session.Generations(cmd.Context(), id))
		},
	}
}

func (a *app) trimsCmd() *cobra.Command {
	var byModel bool
	cmd := &cobra.Command{
		Use:   "trims <generationID>",
		Short: "List the trims of a generation, or of a model's first generation with --model.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "id")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if byModel {
				gens := a.session.Generations(ctx, id)
				if len(gens) == 0 {
					return writeJSON(cmd.OutOrStdout(), []catalog.Trim{})
				}
				id = gens[0].ID
			}
			return writeJSON(cmd.OutOrStdout(), a.session.Trims(ctx, id))
		},
	}
	cmd.Flags().BoolVar(&byModel, "model", false, "treat the argument as a model id")
	return cmd
}

func (a *app) specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec <trimID>",
		Short: "Show the technical spec of a trim.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args, 0, "trimID")
			if err != nil {
				return err
			}
			spec, ok := a.session.Spec(cmd.Context(), id)
			if !ok {
				return fmt.Errorf("spec for trim %d unavailable", id)
			}
			return writeJSON(cmd.OutOrStdout(), spec)
		},
	}
}

type carsFlags struct {
	filters  query.Filters
	sort     string
	page     int
	pageSize int
	pages    int
	details  bool
}

func (a *app) carsCmd() *cobra.Command {
	var f carsFlags
	cmd := &cobra.Command{
		Use:   "cars [makeID]",
		Short: "Load a make's models as cars, then filter, sort and page them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			makeID := browse.DefaultMakeID
			if len(args) == 1 {
				id, err := intArg(args, 0, "makeID")
				if err != nil {
					return err
				}
				makeID = id
			}
			if err := f.filters.Validate(); err != nil {
				return err
			}
			if f.sort != "" {
				if _, ok := query.ParseSortKey(f.sort); !ok {
					return fmt.Errorf("unknown sort %q, want one of %s", f.sort, strings.Join(query.SortFields(), ", "))
				}
			}
			page, err := a.loadCars(cmd.Context(), makeID, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.filters.Query, "query", "", "match make or model name")
	fl.StringVar(&f.filters.Type, "type", "", "body type")
	fl.StringVar(&f.filters.Fuel, "fuel", "", "fuel category")
	fl.StringVar(&f.filters.Year, "year", "", "model year")
	fl.StringVar(&f.filters.Transmission, "transmission", "", "automatic or manual")
	fl.BoolVar(&f.filters.Featured, "featured", false, "only featured cars")
	fl.BoolVar(&f.filters.Available, "available", false, "only available cars")
	fl.StringVar(&f.sort, "sort", "", "sort key such as pricePerDay-asc or year-desc")
	fl.IntVar(&f.page, "page", 1, "result page")
	fl.IntVar(&f.pageSize, "page-size", 12, "cars per result page")
	fl.IntVar(&f.pages, "pages", 0, "load only this many pages of models; 0 loads every model")
	fl.BoolVar(&f.details, "details", false, "merge each shown car's first trim spec")
	return cmd
}

func (a *app) loadCars(ctx context.Context, makeID int, f carsFlags) (query.Page, error) {
	if f.pages <= 0 {
		if _, err := a.session.SelectMake(ctx, makeID); err != nil {
			return query.Page{}, err
		}
	} else {
		for p := 1; p <= f.pages; p++ {
			cars, err := a.session.LoadPage(ctx, makeID, p, browse.ModelsPerPage)
			if err != nil {
				return query.Page{}, err
			}
			if len(cars) == 0 {
				break
			}
		}
	}
	page := a.session.View(f.filters, f.sort, f.page, f.pageSize)
	if f.details {
		page.Cars = fn.Map(page.Cars, func(c catalog.Car) catalog.Car {
			return a.session.CarDetails(ctx, c)
		})
	}
	return page, nil
}

func (a *app) searchCmd() *cobra.Command {
	var f carsFlags
	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: `Search in plain words, e.g. "2019 vw golf diesel manual".`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			makes := a.session.Makes(ctx)
			names := fn.Map(makes, func(m catalog.Make) string { return m.Name })
			s := vehiclenlp.NewParser(names).Parse(strings.Join(args, " "))

			makeID := browse.DefaultMakeID
			if s.Make != "" {
				i := slices.IndexFunc(makes, func(m catalog.Make) bool { return strings.EqualFold(m.Name, s.Make) })
				if i < 0 {
					return fmt.Errorf("make %q is not in the catalog", s.Make)
				}
				makeID = makes[i].ID
			}
			f.filters = query.Filters{
				Query:        s.Terms,
				Fuel:         s.Fuel,
				Transmission: s.Transmission,
			}
			if s.Year > 0 {
				f.filters.Year = strconv.Itoa(s.Year)
			}
			a.logger.Info("search", "make", s.Make, "make_id", makeID, "filters", f.filters)
			page, err := a.loadCars(ctx, makeID, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort key such as pricePerDay-asc or year-desc")
	cmd.Flags().IntVar(&f.page, "page", 1, "result page")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 12, "cars per result page")
	return cmd
}

func (a *app) imageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <make> <model>",
		Short: "Find a photo for a make and model.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.images == nil {
				return errors.New("image search needs an Unsplash key (UNSPLASH_KEY)")
			}
			url, ok := a.images.Lookup(cmd.Context(), args[0], args[1])
			if !ok {
				url = catalog.PlaceholderImage
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print CarsLoaded events published by other carbrowse sessions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.nc == nil {
				return errors.New("watch needs a NATS server (--nats or NATS_URL)")
			}
			out := cmd.OutOrStdout()
			sub, err := natsutil.Subscribe(a.nc, a.cfg.Subject, func(_ context.Context, ev browse.CarsLoaded) {
				if err := writeJSON(out, ev); err != nil {
					a.logger.Warn("write event failed", "err", err)
				}
			})
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", a.cfg.Subject, err)
			}
			defer sub.Unsubscribe()
			a.logger.Info("watching", "subject", a.cfg.Subject)
			<-cmd.Context().Done()
			return nil
		},
	}
}
