// e2e_test.go
//
// Volunteer and voter management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of voternet.
// voternet is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// voternet is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with voternet.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/localnerve/voternet/internal/database"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2EWithFullStack runs the service image against MariaDB, and Authorizer when
// AUTHZ_IMAGE is set. It needs docker, DB_IMAGE and START_APP=true.
func TestE2EWithFullStack(t *testing.T) {
	if testing.Short() || os.Getenv("DB_IMAGE") == "" || os.Getenv("START_APP") != "true" {
		t.Skip("set DB_IMAGE and START_APP=true and run without -short for the E2E test")
	}
	ctx := context.Background()

	opts := testutil.OptionsFromEnv()
	opts.BuildContext = envOr("TESTCONTAINERS_BUILD_CONTEXT", "../..")
	tc, err := testutil.StartContainers(ctx, opts, t.Logf)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := tc.Terminate(context.Background()); err != nil {
			t.Logf("terminate containers: %v", err)
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		cfg := tc.Config()
		db, err := database.Connect(cfg, logging.Discard())
		require.NoError(t, err)
		defer database.Close(db)

		result := services.HealthCheck(ctx, cfg, db, logging.Discard())
		assert.Equal(t, "ok", result.Database)
		if tc.AuthzURL != "" {
			assert.Equal(t, "ok", result.Authorizer)
		}
	})

	t.Run("PrometheusMetrics", func(t *testing.T) {
		resp, err := http.Get(tc.AppURL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("SwaggerUI", func(t *testing.T) {
		resp, err := http.Get(tc.AppURL + "/swagger/index.html")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("PlacesNeedASession", func(t *testing.T) {
		resp, err := http.Get(tc.AppURL + "/api/places/KA")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["ok"])
	})

	t.Run("SignupUnknownPlace", func(t *testing.T) {
		resp, err := http.Post(tc.AppURL+"/api/signup/XX/AC999", "application/json",
			strings.NewReader(`{"name":"A","phone":"9876543210","email":"a@example.com"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
