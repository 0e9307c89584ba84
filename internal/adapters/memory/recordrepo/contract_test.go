package recordrepo

import (
	"testing"

	"github.com/roteiro-app/travel-planner-api/internal/adapters/contracttest"
	recordrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

func TestContract_RecordRepo(t *testing.T) {
	contracttest.RunRecordRepo(t, func(t *testing.T) (recordrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
