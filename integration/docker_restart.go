//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// storeService is the compose service backing the storefront's product store.
var storeService = getenv("E2E_STORE_SERVICE", "mongo")

func composeStore(t *testing.T, ctx context.Context, action string) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", action, storeService)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose %s %s failed: %v\n%s", action, storeService, err, string(out))
	}
}

func stopStoreContainer(t *testing.T, ctx context.Context) {
	t.Helper()
	composeStore(t, ctx, "stop")
}

func startStoreContainer(t *testing.T, ctx context.Context) {
	t.Helper()
	composeStore(t, ctx, "start")
}
