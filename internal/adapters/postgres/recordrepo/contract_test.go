package recordrepo

import (
	"testing"

	"github.com/roteiro-app/travel-planner-api/internal/adapters/contracttest"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/testutil"
	recordrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

func TestContract_PostgresRecordRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunRecordRepo(t, func(t *testing.T) (recordrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
