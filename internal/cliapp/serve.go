// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cliapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleutianlabs/testscope/internal/api"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var addr string
	var factsPath string
	var rateLimit float64
	var burst int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API over the engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Cache.Close()

			stopTracing, err := setupTracing(cmd, flags)
			if err != nil {
				return err
			}
			defer stopTracing()

			router := api.NewRouter(e, api.Options{
				AnalyzerConfig: cfg.AnalyzerConfig(),
				Paths:          cfg.EffectivePaths(flags.projectRoot),
				FactsPath:      factsPath,
				RateLimit:      rateLimit,
				Burst:          burst,
			})

			srv := &http.Server{Addr: addr, Handler: router}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			fmt.Fprintf(cmd.OutOrStdout(), "testscope serving on %s\n", addr)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8088", "address to listen on")
	cmd.Flags().StringVar(&factsPath, "facts", "facts.json", "facts document reloaded by the watch stream")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 10, "sustained requests/sec allowed")
	cmd.Flags().IntVar(&burst, "burst", 20, "burst capacity above the sustained rate")
	return cmd
}
