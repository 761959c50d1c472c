package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestKeyShapes(t *testing.T) {
	safeID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	if got := BalanceKey(safeID); got != "coffre-balance:"+safeID.String() {
		t.Fatalf("unexpected balance key %s", got)
	}
	if got := DashboardKey(userID, ""); got != "dashboard:"+userID.String()+":" {
		t.Fatalf("unexpected all-safes dashboard key %s", got)
	}
	if got := DashboardKey(userID, safeID.String()); !strings.HasSuffix(got, ":"+safeID.String()) {
		t.Fatalf("unexpected per-safe dashboard key %s", got)
	}
}

func TestDashboardPrefixMatchesAllVariants(t *testing.T) {
	userID := uuid.New()
	prefix := DashboardPrefix(userID)

	for _, variant := range []string{"", uuid.NewString()} {
		if key := DashboardKey(userID, variant); !strings.HasPrefix(key, prefix) {
			t.Fatalf("key %s must match prefix %s", key, prefix)
		}
	}
}
