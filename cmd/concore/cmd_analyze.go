// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleutian-oss/concore/services/concore/core"
	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/reporter"
)

// cliExit carries the process exit code a cobra RunE wants without cobra
// printing the message itself (it already went to stderr/stdout).
type cliExit struct {
	code int
	err  error
}

func (e *cliExit) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	interrupted := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			close(interrupted)
			cancel()
		case <-ctx.Done():
		}
	}()

	pol, err := core.LoadPolicy(analyzePolicy)
	if err != nil {
		return configError("loading policy", err)
	}

	format := reporter.Format(analyzeFormat)
	switch format {
	case reporter.FormatJSON, reporter.FormatSARIF, reporter.FormatMarkdown:
	default:
		return configError("parsing --format", fmt.Errorf("%w: %q", coreerr.ErrUnsupportedFormat, analyzeFormat))
	}

	failOn := model.SeverityInfo
	if analyzeFailOn != "" {
		failOn = model.SeverityFromString(analyzeFailOn)
	}

	opts := core.Options{
		Workers:              analyzeWorkers,
		PerFileTimeoutMs:     analyzePerFileTimeout,
		CacheCapacity:        analyzeCacheCapacity,
		MaxFileSizeBytes:     analyzeMaxFileSize,
		IncludeGlobs:         analyzeInclude,
		ExcludeGlobs:         analyzeExclude,
		IncludeWaived:        analyzeIncludeWaived,
		FailOn:               failOn,
		Determinism:          analyzeDeterminism,
		DiskCacheDir:         analyzeDiskCacheDir,
	}

	report, err := core.AnalyzePaths(ctx, args, pol, opts, time.Now().UTC())
	if err != nil {
		select {
		case <-interrupted:
			return &cliExit{code: exitInterrupted}
		default:
		}
		if errors.Is(err, coreerr.ErrInputNotFound) ||
			errors.Is(err, coreerr.ErrPolicyInvalid) ||
			errors.Is(err, coreerr.ErrPolicyNotFound) {
			return configError("analyzing paths", err)
		}
		if errors.Is(err, coreerr.ErrCancelled) || errors.Is(err, context.Canceled) {
			return &cliExit{code: exitInterrupted}
		}
		return unexpectedError("analyzing paths", err)
	}

	printSummary(cmd, report)

	data, err := core.Render(report, format)
	if err != nil {
		return configError("rendering report", err)
	}

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, data, 0o644); err != nil {
			return unexpectedError("writing output", err)
		}
	} else {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return unexpectedError("writing output", err)
		}
	}

	if report.Summary.BudgetViolated {
		return &cliExit{code: exitBudgetViolated}
	}
	return nil
}

func configError(action string, err error) error {
	return &cliExit{code: exitConfigError, err: fmt.Errorf("%s: %w", action, err)}
}

func unexpectedError(action string, err error) error {
	return &cliExit{code: exitUnexpectedError, err: fmt.Errorf("%s: %w", action, err)}
}
