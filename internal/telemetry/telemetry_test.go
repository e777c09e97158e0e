// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledInstallsNoopAndShutdownIsHarmless(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_EnabledInstallsWorkingProvider(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Enabled: true})
	require.NoError(t, err)
	defer shutdown(context.Background())

	tracer := Tracer("testscope.test")
	_, span := tracer.Start(context.Background(), "unit-test-span")
	span.End()
}
